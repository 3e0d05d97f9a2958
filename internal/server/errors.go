package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundJSON builds the global error handler. Every error, echo's own 404s
// included, renders as the same ErrorResponse JSON shape. Outside dev mode
// internal errors are masked so pipeline internals never leak to callers.
func NotFoundJSON(devMode bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			msg := http.StatusText(he.Code)
			if devMode && he.Message != nil {
				msg = fmt.Sprintf("%v", he.Message)
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: he.Code})
			return
		}

		msg := "internal server error"
		if devMode {
			msg = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: msg,
			Code:  http.StatusInternalServerError,
		})
	}
}
