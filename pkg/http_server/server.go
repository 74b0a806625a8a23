package http_server

import (
	"context"
	"net"
	"net/http"

	"github.com/jaennil/weather_maps/pkg/config"
)

// NewServer builds the http.Server. Every request context derives from ctx,
// so values stored on it (the logger) reach the handlers.
func NewServer(ctx context.Context, cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
