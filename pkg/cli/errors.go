package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

// settingSuggestions helps with a ConfigurationError, keyed by setting
var settingSuggestions = map[string][]string{
	"calculation_mode": {
		"Use " + CodeStyle.Render("--mode psha") + " for curves, maps and spectra",
		"Use " + CodeStyle.Render("--mode disaggregation") + " for Mag_Dist style files",
	},
	"source.kind": {
		"Set " + CodeStyle.Render("source.kind") + " to local or s3",
		"Or pass " + CodeStyle.Render("--dir <path>") + " or " + CodeStyle.Render("--s3-bucket <name>"),
	},
	"source.s3.bucket": {
		"Pass " + CodeStyle.Render("--s3-bucket <name>") + " or set source.s3.bucket in the config file",
	},
	"curve kind": {
		"Use " + CodeStyle.Render("--kind all_type_acc") + " or " + CodeStyle.Render("--kind all_type_data"),
	},
	"seed": {
		"Seeds are integers, e.g. " + CodeStyle.Render("--seed 14"),
	},
	"sort": {
		CodeStyle.Render("--sort") + " only applies to " + CodeStyle.Render("--mode psha"),
	},
	"type_acc": {
		"An all_type_data figure needs a threshold, e.g. " + CodeStyle.Render("--type-acc PGA"),
	},
	"poe": {
		"Poes are numbers, e.g. " + CodeStyle.Render("--poe 0.1"),
	},
}

// describeError returns a title and suggestions for err
func describeError(err error) (string, []string) {
	var (
		structureErr *types.StructureError
		parseErr     *types.ParseError
		configErr    *types.ConfigurationError
		metadataErr  *types.MetadataError
	)

	switch {
	case errors.As(err, &structureErr):
		return "Malformed output filename", []string{
			"Output names look like " + CodeStyle.Render("{startname}_{types}_{seed}.csv"),
			"Disaggregation files are only read with " + CodeStyle.Render("--mode disaggregation"),
		}
	case errors.As(err, &parseErr):
		return "Invalid seed", []string{
			"The segment after the last underscore must be an integer, e.g. " + CodeStyle.Render("hazard_uhs-mean_14.csv"),
		}
	case errors.As(err, &configErr):
		return "Unsupported setting", settingSuggestions[configErr.Setting]
	case errors.As(err, &metadataErr):
		return "Incomplete job file", []string{
			fmt.Sprintf("Check %s in section [%s] of the job file", CodeStyle.Render(metadataErr.Key), metadataErr.Section),
			"Point " + CodeStyle.Render("--job") + " at the job.ini of the run",
		}
	case errors.Is(err, sources.ErrNotFound):
		return "Output not found", []string{
			"List the outputs with " + CodeStyle.Render("hazardkit filter --mode psha"),
			"Check " + CodeStyle.Render("--dir") + " or " + CodeStyle.Render("--s3-bucket") + " and " + CodeStyle.Render("--s3-prefix"),
		}
	case errors.Is(err, context.Canceled):
		return "Interrupted", nil
	}
	return "Command failed", nil
}

// FormatError converts an error to a human-readable message
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return cleanErrorMessage(err.Error())
}

// GetErrorSuggestions returns helpful suggestions for an error
func GetErrorSuggestions(err error) []string {
	if err == nil {
		return nil
	}
	_, suggestions := describeError(err)
	return suggestions
}

// ErrorTitle returns a short headline for an error
func ErrorTitle(err error) string {
	title, _ := describeError(err)
	return title
}

// cleanErrorMessage cleans up common error message patterns
func cleanErrorMessage(msg string) string {
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimPrefix(msg, "Error: ")

	// For deeply nested errors, keep the first and last parts
	if parts := strings.Split(msg, ": "); len(parts) > 3 {
		msg = parts[0] + ": " + parts[len(parts)-1]
	}
	return msg
}

// PrintFormattedError prints an error with styling and optional suggestions
func PrintFormattedError(title string, err error) {
	fmt.Fprintln(stderr)
	PrintErrorMsg(title)

	if err != nil {
		fmt.Fprintf(stderr, "  %s\n", DimStyle.Render(FormatError(err)))
		if suggestions := GetErrorSuggestions(err); len(suggestions) > 0 {
			printSuggestions(stderr, "Suggestions:", suggestions)
		}
	}
	fmt.Fprintln(stderr)
}
