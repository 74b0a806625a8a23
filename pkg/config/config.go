package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP        HTTP        `envPrefix:"HTTP_"`
		Logger      Logger      `envPrefix:"LOGGER_"`
		Telemetry   Telemetry   `envPrefix:"TELEMETRY_"`
		Session     Session     `envPrefix:"SESSION_"`
		Redis       Redis       `envPrefix:"REDIS_"`
		SQLite      SQLite      `envPrefix:"SQLITE_"`
		EarthEngine EarthEngine `envPrefix:"EARTHENGINE_"`
		Credentials Credentials `envPrefix:"CREDENTIALS_"`
		Upstream    Upstream    `envPrefix:"UPSTREAM_"`
		Static      Static      `envPrefix:"STATIC_"`
		CORS        CORS        `envPrefix:"CORS_"`
	}

	HTTP struct {
		Server      Server `envPrefix:"SERVER_"`
		ProxyPrefix string `env:"PROXY_PREFIX" envDefault:"/api/v1/proxy"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"3000"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		// Format is console or json.
		Format string `env:"FORMAT" envDefault:"console"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"weather-maps-tileproxy"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Session struct {
		// Store is one of memory, redis, sqlite.
		Store         string        `env:"STORE" envDefault:"memory"`
		SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
		// Retention keeps expired entries around in redis so they still resolve as
		// expired. Must be positive when Store is redis.
		Retention time.Duration `env:"RETENTION" envDefault:"15m"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
		Prefix   string `env:"PREFIX" envDefault:"tilesession:"`
	}

	SQLite struct {
		DSN string `env:"DSN" envDefault:"file:sessions.db?cache=shared&mode=memory"`
	}

	EarthEngine struct {
		BaseURL   string `env:"BASE_URL" envDefault:"https://earthengine.googleapis.com"`
		ProjectID string `env:"PROJECT_ID" envDefault:"california-weather-maps"`
	}

	Credentials struct {
		// StaticToken bypasses Application Default Credentials when set.
		StaticToken string   `env:"STATIC_TOKEN" envDefault:""`
		Scopes      []string `env:"SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/earthengine.readonly"`
	}

	Upstream struct {
		Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	}

	Static struct {
		Dir string `env:"DIR" envDefault:"public"`
	}

	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
