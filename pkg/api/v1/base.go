package apiv1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

const (
	HttpServerBaseRoute string = "/api/v1"
	HttpServerRootRoute string = ""
)

// Response is a standard API response structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse returns a successful response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse returns an error response
func ErrorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{
		Success: false,
		Error:   message,
	})
}

// FailureResponse maps a domain error to its status code
func FailureResponse(c echo.Context, err error) error {
	return ErrorResponse(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var metaErr *types.MetadataError
	switch {
	case types.IsStructureError(err), types.IsParseError(err), types.IsConfigurationError(err):
		return http.StatusBadRequest
	case errors.As(err, &metaErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sources.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
