package http

import (
	"net/http"
	"runtime"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/config"
	echo "github.com/labstack/echo/v4"
)

type endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

func healthHandler(app config.AppConfig, startedAt time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		return c.JSON(http.StatusOK, map[string]any{
			"status":      "healthy",
			"service":     app.Name,
			"version":     app.Version,
			"timestamp":   timestamp(),
			"uptime":      time.Since(startedAt).Seconds(),
			"environment": app.Environment,
			"go":          runtime.Version(),
			"goroutines":  runtime.NumGoroutine(),
			"memory": map[string]uint64{
				"alloc": mem.Alloc,
				"sys":   mem.Sys,
			},
		})
	}
}

func rootHandler(app config.AppConfig, endpoints []endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"service":   app.Name,
			"version":   app.Version,
			"status":    "running",
			"endpoints": endpoints,
			"timestamp": timestamp(),
		})
	}
}
