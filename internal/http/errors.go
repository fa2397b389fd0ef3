package http

import (
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type notFoundResponse struct {
	Error              string   `json:"error"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

// errorHandler renders every echo error as JSON. 5xx bodies are generic.
func errorHandler(log *zap.Logger, paths []string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		req := c.Request()
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		var body any
		switch {
		case code == http.StatusNotFound:
			log.Warn("Route not found", zap.String("method", req.Method), zap.String("url", req.RequestURI))
			body = notFoundResponse{
				Error:              "Not Found",
				Message:            fmt.Sprintf("Route %s %s not found", req.Method, req.URL.Path),
				AvailableEndpoints: paths,
			}
		case code >= http.StatusInternalServerError:
			log.Error("Unhandled error",
				zap.Error(err),
				zap.String("method", req.Method),
				zap.String("url", req.RequestURI),
			)
			body = errorResponse{Error: "Internal Server Error", Message: "An unexpected error occurred"}
		default:
			msg := http.StatusText(code)
			if he != nil {
				if s, ok := he.Message.(string); ok {
					msg = s
				}
			}
			body = errorResponse{Error: http.StatusText(code), Message: msg}
		}

		var werr error
		if req.Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			log.Warn("write error response failed", zap.Error(werr))
		}
	}
}
