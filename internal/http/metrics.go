package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/snakebot/internal/http"

// Dice submission results.
const (
	diceAccepted = "accepted"
	diceRejected = "rejected"
)

// HTTPMetrics records request and game command metrics through the OTel
// meter provider. Instruments that fail to register are skipped.
type HTTPMetrics struct {
	meter       metric.Meter
	logger      *zap.Logger
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	inFlight    metric.Int64UpDownCounter
	submissions metric.Int64Counter
}

// NewHTTPMetrics creates the instruments on the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	return newHTTPMetrics(otel.Meter(httpInstrumentationName), logger)
}

func newHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &HTTPMetrics{meter: meter, logger: logger}

	var err error
	if m.requests, err = meter.Int64Counter("snakebot.http.requests_total",
		metric.WithDescription("HTTP requests by method, route template and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		logger.Warn("failed to create requests counter", zap.Error(err))
	}
	if m.duration, err = meter.Float64Histogram("snakebot.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration by method, route template and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	); err != nil {
		logger.Warn("failed to create duration histogram", zap.Error(err))
	}
	if m.inFlight, err = meter.Int64UpDownCounter("snakebot.http.active_requests",
		metric.WithDescription("Requests being served, including open event streams"),
		metric.WithUnit("{request}"),
	); err != nil {
		logger.Warn("failed to create active requests counter", zap.Error(err))
	}
	if m.submissions, err = meter.Int64Counter("snakebot.http.dice_submissions_total",
		metric.WithDescription("Dice values posted by the frontend, by result"),
		metric.WithUnit("{submission}"),
	); err != nil {
		logger.Warn("failed to create dice submissions counter", zap.Error(err))
	}
	return m
}

// MetricsMiddleware records every request under its route template, so
// session ids never reach the endpoint label.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "/"
			}
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", route),
				attribute.Int("status", c.Response().Status),
			)
			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			return err
		}
	}
}

// diceSubmitted counts one posted dice value. Nil-safe.
func (m *HTTPMetrics) diceSubmitted(ctx context.Context, result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
