// Package credentials obtains the short-lived bearer tokens attached to
// upstream map requests. Tokens never leave the server.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/weather_maps/pkg/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// EarthEngineReadOnlyScope is the scope requested by default.
const EarthEngineReadOnlyScope = "https://www.googleapis.com/auth/earthengine.readonly"

var ErrUnavailable = errors.New("credential unavailable")

type Token struct {
	Value string
	// Expiry is zero when the provider does not say.
	Expiry time.Time
}

type Provider interface {
	// Token returns a bearer token. Failures wrap ErrUnavailable.
	Token(ctx context.Context) (Token, error)
}

// OAuth2Provider adapts an oauth2.TokenSource. The source is wrapped in
// oauth2.ReuseTokenSource, so a token is handed out again only while it is
// inside its stated validity window.
type OAuth2Provider struct {
	name string
	src  oauth2.TokenSource
}

func NewOAuth2Provider(name string, src oauth2.TokenSource) *OAuth2Provider {
	return &OAuth2Provider{
		name: name,
		src:  oauth2.ReuseTokenSource(nil, src),
	}
}

// NewGoogleProvider uses Application Default Credentials. ctx is used for
// token refreshes for the lifetime of the provider.
func NewGoogleProvider(ctx context.Context, scopes ...string) (*OAuth2Provider, error) {
	if len(scopes) == 0 {
		scopes = []string{EarthEngineReadOnlyScope}
	}

	src, err := google.DefaultTokenSource(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: application default credentials: %v", ErrUnavailable, err)
	}

	return NewOAuth2Provider("google", src), nil
}

var _ Provider = (*OAuth2Provider)(nil)

func (p *OAuth2Provider) Token(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		metrics.CredentialFetches.WithLabelValues(p.name, "error").Inc()
		return Token{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	t, err := p.src.Token()
	if err != nil {
		metrics.CredentialFetches.WithLabelValues(p.name, "error").Inc()
		return Token{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if t.AccessToken == "" {
		metrics.CredentialFetches.WithLabelValues(p.name, "empty").Inc()
		return Token{}, fmt.Errorf("%w: empty access token", ErrUnavailable)
	}

	metrics.CredentialFetches.WithLabelValues(p.name, "ok").Inc()
	return Token{Value: t.AccessToken, Expiry: t.Expiry}, nil
}

// StaticProvider always returns the same token. Meant for local development
// against a token minted with `gcloud auth print-access-token`.
type StaticProvider struct {
	token string
}

func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

var _ Provider = (*StaticProvider)(nil)

func (p *StaticProvider) Token(_ context.Context) (Token, error) {
	if p.token == "" {
		metrics.CredentialFetches.WithLabelValues("static", "empty").Inc()
		return Token{}, fmt.Errorf("%w: static token not configured", ErrUnavailable)
	}
	metrics.CredentialFetches.WithLabelValues("static", "ok").Inc()
	return Token{Value: p.token}, nil
}
