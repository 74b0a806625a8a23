package usecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/jaennil/weather_maps/internal/repository/earthengine"
)

var (
	ErrSessionNotFound       = errors.New("tile session not found")
	ErrSessionExpired        = errors.New("tile session expired")
	ErrCredentialUnavailable = errors.New("auth token unavailable")
	ErrUpstreamUnreachable   = errors.New("upstream unreachable")
	ErrUnexpectedShape       = earthengine.ErrUnexpectedShape
	ErrInvalidTile           = earthengine.ErrInvalidTileCoordinate
)

// UpstreamError is a non-success answer from the map backend, passed
// through to the client rather than treated as a local fault.
type UpstreamError = earthengine.UpstreamError

type MapComputer interface {
	ComputeMap(ctx context.Context, token string, req earthengine.ComputeRequest) (earthengine.MapResult, error)
}

type TileFetcher interface {
	FetchTile(ctx context.Context, token, resourceName, z, x, y string) (*http.Response, error)
}
