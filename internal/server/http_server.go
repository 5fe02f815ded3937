package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	bookingapi "github.com/lectoria/lectoria/api/echo"
	"github.com/lectoria/lectoria/config"
	"github.com/lectoria/lectoria/log"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, api *bookingapi.BookingAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())

	// Request logging through the shared logger interface.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := map[string]interface{}{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			}
			if err != nil {
				appLogger.Error(c.Request().Context(), "HTTP Request failed", err, fields)
			} else {
				appLogger.Info(c.Request().Context(), "HTTP Request", fields)
			}
			return err
		}
	})

	api.RegisterRoutes(e)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
