package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jaennil/weather_maps/internal/credentials"
	"github.com/jaennil/weather_maps/internal/repository/session"
	"github.com/jaennil/weather_maps/pkg/logger"
	"github.com/jaennil/weather_maps/pkg/metrics"
)

const defaultTileContentType = "image/png"

// Tile is an upstream tile body ready to be streamed. Body must be closed.
type Tile struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	CacheControl  string
}

type TileProxyUseCase struct {
	sessions    session.Store
	credentials credentials.Provider
	fetcher     TileFetcher
	logger      logger.Logger
}

func NewTileProxyUseCase(sessions session.Store, creds credentials.Provider, fetcher TileFetcher, l logger.Logger) *TileProxyUseCase {
	return &TileProxyUseCase{
		sessions:    sessions,
		credentials: creds,
		fetcher:     fetcher,
		logger:      l,
	}
}

// GetTile resolves sessionID, attaches a fresh credential and fetches tile
// z/x/y of the session's map. Sessions are only read here.
func (uc *TileProxyUseCase) GetTile(ctx context.Context, sessionID, z, x, y string) (*Tile, error) {
	resourceName, err := uc.sessions.Resolve(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			metrics.ProxyRequests.WithLabelValues("session_not_found").Inc()
			return nil, ErrSessionNotFound
		case errors.Is(err, session.ErrExpired):
			metrics.ProxyRequests.WithLabelValues("session_expired").Inc()
			return nil, ErrSessionExpired
		default:
			metrics.ProxyRequests.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to resolve tile session: %w", err)
		}
	}

	token, err := uc.credentials.Token(ctx)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("credential_unavailable").Inc()
		uc.logger.Error("failed to obtain credential", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}

	resp, err := uc.fetcher.FetchTile(ctx, token.Value, resourceName, z, x, y)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
			uc.logger.Warn("upstream tile error",
				"session", sessionID,
				"z", z, "x", x, "y", y,
				"status", upErr.StatusCode,
			)
			return nil, upErr
		}
		if errors.Is(err, ErrInvalidTile) {
			metrics.ProxyRequests.WithLabelValues("invalid_tile").Inc()
			return nil, err
		}
		if ctx.Err() != nil {
			metrics.ProxyRequests.WithLabelValues("cancelled").Inc()
			return nil, ctx.Err()
		}
		metrics.ProxyRequests.WithLabelValues("upstream_unreachable").Inc()
		uc.logger.Error("failed to fetch tile", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultTileContentType
	}

	metrics.ProxyRequests.WithLabelValues("ok").Inc()
	uc.logger.Debug("fetched tile", "session", sessionID, "z", z, "x", x, "y", y, "content_type", contentType)

	return &Tile{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		CacheControl:  resp.Header.Get("Cache-Control"),
	}, nil
}
