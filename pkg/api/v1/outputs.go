package apiv1

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/hazardkit/pkg/compartment"
	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

// OutputsGroup parses and filters engine output filenames
type OutputsGroup struct {
	g      *echo.Group
	source sources.Source
}

// NewOutputsGroup registers output API routes. src may be nil, in which
// case only the stateless parse and filter routes are useful.
func NewOutputsGroup(g *echo.Group, src sources.Source) *OutputsGroup {
	og := &OutputsGroup{g: g, source: src}
	og.g.GET("", og.List)
	og.g.GET("/parse", og.Parse)
	og.g.POST("/filter", og.Filter)
	og.g.GET("/summary", og.Summary)
	return og
}

type FilterRequest struct {
	Filenames              []string    `json:"filenames"`
	Mode                   string      `json:"mode"`
	Query                  types.Query `json:"query"`
	DisaggregationPatterns []string    `json:"disaggregation_patterns"`
}

type FilterResponse struct {
	Filenames []string `json:"filenames"`
	Count     int      `json:"count"`
}

// Parse splits ?filename= into its record
func (og *OutputsGroup) Parse(c echo.Context) error {
	filename := c.QueryParam("filename")
	if filename == "" {
		return ErrorResponse(c, http.StatusBadRequest, "filename required")
	}

	rec, err := compartment.Parse(filename)
	if err != nil {
		return FailureResponse(c, err)
	}
	return SuccessResponse(c, rec)
}

// Filter runs a filter pass over the filenames of the request body
func (og *OutputsGroup) Filter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}

	return og.filter(c, req.Filenames, req.Mode, compartment.Criteria{
		Query:                  req.Query,
		DisaggregationPatterns: req.DisaggregationPatterns,
	})
}

// List filters the configured source with criteria from the query string
func (og *OutputsGroup) List(c echo.Context) error {
	if og.source == nil {
		return ErrorResponse(c, http.StatusServiceUnavailable, "no output source configured")
	}

	params := c.QueryParams()
	criteria, err := criteriaFromQuery(params)
	if err != nil {
		return FailureResponse(c, err)
	}

	names, err := og.source.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Str("source", og.source.Location()).Msg("failed to list outputs")
		return FailureResponse(c, err)
	}

	return og.filter(c, names, params.Get("mode"), criteria)
}

func (og *OutputsGroup) filter(c echo.Context, filenames []string, rawMode string, criteria compartment.Criteria) error {
	mode, err := types.ParseCalculationMode(rawMode)
	if err != nil {
		return FailureResponse(c, err)
	}

	kept, err := compartment.Filter(filenames, mode, criteria, compartment.WithObserver(logDecision))
	if err != nil {
		return FailureResponse(c, err)
	}
	return SuccessResponse(c, FilterResponse{Filenames: kept, Count: len(kept)})
}

// Summary reports the modal and mean scenario of a disaggregation file
func (og *OutputsGroup) Summary(c echo.Context) error {
	if og.source == nil {
		return ErrorResponse(c, http.StatusServiceUnavailable, "no output source configured")
	}

	file, imt := c.QueryParam("file"), c.QueryParam("imt")
	if file == "" || imt == "" {
		return ErrorResponse(c, http.StatusBadRequest, "file and imt required")
	}
	poe, err := strconv.ParseFloat(c.QueryParam("poe"), 64)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "poe must be a number")
	}

	rc, err := og.source.Open(c.Request().Context(), file)
	if err != nil {
		return FailureResponse(c, err)
	}
	defer rc.Close()

	d, err := hazard.ReadDisagg(rc)
	if err != nil {
		return ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	}

	invT, _ := d.InvestigationTime()
	if raw := c.QueryParam("investigation_time"); raw != "" {
		if invT, err = strconv.ParseFloat(raw, 64); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "investigation_time must be a number")
		}
	}

	summary, err := d.Summarize(imt, poe, invT)
	if err != nil {
		return ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	}
	return SuccessResponse(c, summary)
}

// criteriaFromQuery reads repeated or comma separated query parameters:
// ?type_acc=PGA,SA(0.1)&seed=14&pattern=Mag
func criteriaFromQuery(params url.Values) (compartment.Criteria, error) {
	var criteria compartment.Criteria
	q := &criteria.Query

	q.Startname = listParam(params, "startname")
	q.TypeFilename = listParam(params, "type_filename")
	q.TypeData = listParam(params, "type_data")
	q.TypeAcc = listParam(params, "type_acc")
	for _, raw := range listParam(params, "seed") {
		seed, err := strconv.Atoi(raw)
		if err != nil {
			return criteria, &types.ConfigurationError{Setting: "seed", Value: raw}
		}
		q.Seed = append(q.Seed, seed)
	}
	criteria.DisaggregationPatterns = listParam(params, "pattern")

	return criteria, nil
}

// listParam splits on commas that sit outside parentheses, so SA(0.1) stays whole
func listParam(params url.Values, key string) []string {
	var values []string
	for _, raw := range params[key] {
		for _, v := range splitOutsideParens(raw) {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func splitOutsideParens(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func logDecision(filename string, mode types.CalculationMode, decision compartment.Decision) {
	log.Debug().
		Str("filename", filename).
		Str("mode", string(mode)).
		Stringer("decision", decision).
		Msg("filter decision")
}
