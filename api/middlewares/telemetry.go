package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inference-gateway/instruct-agent/logger"
	"github.com/inference-gateway/instruct-agent/otel"
)

type Telemetry interface {
	Middleware() gin.HandlerFunc
}

type TelemetryImpl struct {
	telemetry otel.OpenTelemetry
	logger    logger.Logger
}

func NewTelemetryMiddleware(telemetry otel.OpenTelemetry, logger logger.Logger) (Telemetry, error) {
	return &TelemetryImpl{
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// Middleware records the duration of every routed request
func (t *TelemetryImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if route == "/metrics" {
			return
		}

		elapsed := float64(time.Since(start).Microseconds()) / 1000
		t.logger.Debug("Request duration", "route", route, "ms", elapsed)
		t.telemetry.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), elapsed)
	}
}
