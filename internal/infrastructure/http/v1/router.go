package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/weather_maps/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/weather_maps/pkg/logger"
	"github.com/jaennil/weather_maps/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	TelemetryEnabled bool
	// ProxyPrefix is where tile sessions are served, e.g. /api/v1/proxy.
	ProxyPrefix    string
	StaticDir      string
	AllowedOrigins []string
}

func NewRouter(handler *handler.Handler, l logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if cfg.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware())
	}

	r.Use(ginZapLogger(l))
	r.Use(cors(cfg.AllowedOrigins))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	v1.GET("/layers/temperature", handler.TemperatureLayer)
	v1.GET("/layers/daymet", handler.DaymetLayer)
	v1.POST("/layers", handler.CreateLayer)

	r.GET(cfg.ProxyPrefix+"/:session/:z/:x/:y", handler.Tile)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.StaticDir != "" {
		r.NoRoute(staticFallback(cfg.StaticDir))
	}

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
