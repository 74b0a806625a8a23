package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/weather_maps/internal/credentials"
	v1 "github.com/jaennil/weather_maps/internal/infrastructure/http/v1"
	"github.com/jaennil/weather_maps/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/weather_maps/internal/repository/earthengine"
	"github.com/jaennil/weather_maps/internal/repository/session"
	"github.com/jaennil/weather_maps/internal/usecase"
	"github.com/jaennil/weather_maps/pkg/config"
	"github.com/jaennil/weather_maps/pkg/http_server"
	"github.com/jaennil/weather_maps/pkg/logger"
	"github.com/jaennil/weather_maps/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer func() { _ = l.Sync() }()

	l.Info("starting tile proxy", "store", cfg.Session.Store, "project", cfg.EarthEngine.ProjectID)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), l))
	defer cancel()

	sessions, err := newSessionStore(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize session store", "store", cfg.Session.Store, "error", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			l.Error("failed to close session store", "error", err)
		}
	}()

	creds, err := newCredentialProvider(ctx, cfg.Credentials)
	if err != nil {
		l.Fatal("failed to initialize credentials", "error", err)
	}

	client := earthengine.NewClient(cfg.EarthEngine.BaseURL, cfg.EarthEngine.ProjectID, cfg.Upstream.Timeout)

	layerUseCase := usecase.NewLayerUseCase(client, sessions, creds, cfg.HTTP.ProxyPrefix, l)
	tileProxyUseCase := usecase.NewTileProxyUseCase(sessions, creds, client, l)

	sweeper := usecase.NewSessionSweeper(sessions, cfg.Session.SweepInterval, l)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Run(ctx)
	}()

	h := handler.NewHandler(validator.New(), layerUseCase, tileProxyUseCase)

	router := v1.NewRouter(h, l, v1.RouterConfig{
		TelemetryEnabled: cfg.Telemetry.Enabled,
		ProxyPrefix:      cfg.HTTP.ProxyPrefix,
		StaticDir:        cfg.Static.Dir,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
	})

	server := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", "error", err)
	}

	cancel()
	<-sweeperDone

	l.Info("server stopped")
}

func newSessionStore(cfg *config.Config, l logger.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		return session.NewRedisStore(session.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Prefix:    cfg.Redis.Prefix,
			Retention: cfg.Session.Retention,
		})
	case "sqlite":
		return session.NewSQLiteStore(cfg.SQLite.DSN, l)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

func newCredentialProvider(ctx context.Context, cfg config.Credentials) (credentials.Provider, error) {
	if cfg.StaticToken != "" {
		return credentials.NewStaticProvider(cfg.StaticToken), nil
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{credentials.EarthEngineReadOnlyScope}
	}
	return credentials.NewGoogleProvider(ctx, scopes...)
}
