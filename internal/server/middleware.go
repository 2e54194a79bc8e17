package server

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"topikai/internal/core"
	"topikai/internal/observability"
)

// RequestID attaches a unique ID to every request, honoring one supplied by
// the caller in X-Request-Id. The ID travels in the request context so
// pipeline logs can be correlated with the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = "req_" + uuid.New().String()
			}

			ctx := core.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			return next(c)
		}
	}
}

// RequestLogger writes one structured log line per request and feeds the
// latency histogram. The metric is labeled with the route template, not the
// raw URI, to keep cardinality bounded.
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			observability.HTTPRequestSeconds.
				WithLabelValues(c.Path(), v.Method, strconv.Itoa(v.Status)).
				Observe(v.Latency.Seconds())

			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Millisecond).String(),
				"requestId", core.GetRequestID(c.Request().Context()),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
				slog.Warn("request failed", attrs...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	})
}
