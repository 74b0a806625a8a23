// Package earthengine talks to the Earth Engine REST API: it computes map
// resources from an expression and fetches their tiles with a bearer token.
package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaennil/weather_maps/pkg/metrics"
	"github.com/jaennil/weather_maps/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 64 << 10

var (
	ErrUnexpectedShape       = errors.New("unexpected response from maps:compute")
	ErrInvalidTileCoordinate = errors.New("invalid tile coordinate")
)

// UpstreamError is a non-success response from Earth Engine.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, e.Body)
}

type (
	ComputeRequest struct {
		Expression    Expression    `json:"expression"`
		Visualization Visualization `json:"visualization"`
	}

	Expression struct {
		Expression string `json:"expression"`
	}

	Visualization struct {
		Range   *Range   `json:"range,omitempty"`
		Palette []string `json:"palette,omitempty"`
	}

	Range struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}
)

// MapResult holds exactly one of PublicTemplate or ResourceName.
type MapResult struct {
	// PublicTemplate is a {z}/{x}/{y} URL template clients may fetch directly.
	PublicTemplate string
	// ResourceName identifies a map whose tiles need a bearer token.
	ResourceName string
}

type computeResponse struct {
	TileURLTemplate string `json:"tileUrlTemplate"`
	MapID           string `json:"mapid"`
	Token           string `json:"token"`
	Name            string `json:"name"`
}

type Client struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
}

func NewClient(baseURL, projectID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ComputeMap asks Earth Engine to compute a map for req. A public template
// wins over a resource name when the response carries both.
func (c *Client) ComputeMap(ctx context.Context, token string, req ComputeRequest) (res MapResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "earthengine.compute_map",
		attribute.String("earthengine.project", c.projectID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	body, err := json.Marshal(req)
	if err != nil {
		return MapResult{}, fmt.Errorf("failed to encode compute request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/projects/%s/maps:compute", c.baseURL, c.projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return MapResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-user-project", c.projectID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.UpstreamLatency.WithLabelValues("compute_map").Observe(time.Since(start).Seconds())
	if err != nil {
		return MapResult{}, fmt.Errorf("maps:compute request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return MapResult{}, newUpstreamError("maps:compute", resp)
	}

	var data computeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return MapResult{}, fmt.Errorf("failed to decode maps:compute response: %w", err)
	}

	switch {
	case data.TileURLTemplate != "":
		return MapResult{PublicTemplate: data.TileURLTemplate}, nil
	case data.MapID != "" && data.Token != "":
		return MapResult{
			PublicTemplate: fmt.Sprintf("%s/map/%s/{z}/{x}/{y}?token=%s", c.baseURL, data.MapID, data.Token),
		}, nil
	case data.Name != "":
		return MapResult{ResourceName: data.Name}, nil
	default:
		return MapResult{}, ErrUnexpectedShape
	}
}

// FetchTile requests one tile of resourceName. z, x and y are forwarded as
// given. On success the caller must close the response body; any non-2xx
// status is returned as *UpstreamError with the body already drained.
func (c *Client) FetchTile(ctx context.Context, token, resourceName, z, x, y string) (resp *http.Response, err error) {
	ctx, span := telemetry.StartSpan(ctx, "earthengine.fetch_tile",
		attribute.String("earthengine.map", resourceName),
		attribute.String("tile.z", z),
		attribute.String("tile.x", x),
		attribute.String("tile.y", y),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	endpoint, err := c.TileURL(resourceName, z, x, y)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err = c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues("fetch_tile").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile from upstream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newUpstreamError("tile fetch", resp)
	}

	return resp, nil
}

// TileURL is the authenticated tile endpoint for a computed map. Each
// coordinate is escaped as a single path segment; dot segments are rejected
// so a coordinate can never climb out of the map's tile path.
func (c *Client) TileURL(resourceName, z, x, y string) (string, error) {
	for _, seg := range []string{z, x, y} {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidTileCoordinate, seg)
		}
	}
	return fmt.Sprintf("%s/v1/%s/tiles/%s/%s/%s", c.baseURL, resourceName,
		url.PathEscape(z), url.PathEscape(x), url.PathEscape(y)), nil
}

func newUpstreamError(op string, resp *http.Response) *UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
