package telemetry

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jaennil/weather_maps"

var untracedRoutes = map[string]struct{}{
	"/api/v1/healthz": {},
	"/metrics":        {},
}

// GinMiddleware starts a server span per request, continuing any trace
// carried in the incoming headers. Tile proxy spans are named by route, so
// session ids and coordinates stay out of span names.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		if _, skip := untracedRoutes[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(c, route)...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		propagator.Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))

		c.Next()

		finishServerSpan(span, c)
	}
}

func requestAttributes(c *gin.Context, route string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(c.Request.Method),
		semconv.HTTPRoute(route),
		semconv.URLPath(c.Request.URL.Path),
		semconv.ServerAddress(c.Request.Host),
		semconv.ClientAddress(c.ClientIP()),
		semconv.UserAgentOriginal(c.Request.UserAgent()),
	}
}

func finishServerSpan(span trace.Span, c *gin.Context) {
	status := c.Writer.Status()
	span.SetAttributes(
		semconv.HTTPResponseStatusCode(status),
		attribute.Int("http.response.size", c.Writer.Size()),
	)

	// 4xx are the client's problem; only server side failures mark the span.
	if status < 500 {
		span.SetStatus(codes.Unset, "")
		return
	}

	span.SetStatus(codes.Error, c.Errors.String())
	if err := c.Errors.Last(); err != nil {
		span.RecordError(err)
	}
}

// StartSpan starts a client span for an outbound call. With telemetry
// disabled the global no-op provider makes this free.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
