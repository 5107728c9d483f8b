package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/glossa/internal/models"
)

type response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success(c echo.Context, result any) error {
	return c.JSON(http.StatusOK, response{Success: true, Result: result})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, response{Error: message})
}

// failWith maps a pipeline error to a status code.
func failWith(c echo.Context, err error) error {
	return fail(c, statusOf(err), err.Error())
}

func statusOf(err error) int {
	var (
		vErr     *models.ValidationError
		cfgErr   *models.ConfigError
		totalErr *models.TotalFailureError
	)
	switch {
	case errors.As(err, &vErr), errors.Is(err, models.ErrNoTextInImage):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cfgErr):
		return http.StatusPreconditionFailed
	case errors.As(err, &totalErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
