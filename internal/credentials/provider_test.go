package credentials

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type countingSource struct {
	calls  atomic.Int32
	expiry time.Duration
	err    error
	token  string
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{
		AccessToken: s.token,
		Expiry:      time.Now().Add(s.expiry),
	}, nil
}

func TestOAuth2Provider_ReusesValidToken(t *testing.T) {
	src := &countingSource{token: "ya29.token", expiry: time.Hour}
	p := NewOAuth2Provider("test", src)

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.Value != "ya29.token" {
			t.Errorf("Token().Value = %q, want %q", tok.Value, "ya29.token")
		}
		if tok.Expiry.IsZero() {
			t.Error("Token().Expiry should be set")
		}
	}

	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

func TestOAuth2Provider_RefetchesExpiredToken(t *testing.T) {
	src := &countingSource{token: "ya29.token", expiry: -time.Minute}
	p := NewOAuth2Provider("test", src)

	for i := 0; i < 3; i++ {
		if _, err := p.Token(context.Background()); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
	}

	if got := src.calls.Load(); got != 3 {
		t.Errorf("source called %d times, want 3", got)
	}
}

func TestOAuth2Provider_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  *countingSource
		ctx  func() context.Context
	}{
		{
			name: "source error",
			src:  &countingSource{err: errors.New("invalid_grant")},
			ctx:  context.Background,
		},
		{
			name: "empty token",
			src:  &countingSource{token: "", expiry: time.Hour},
			ctx:  context.Background,
		},
		{
			name: "cancelled context",
			src:  &countingSource{token: "ya29.token", expiry: time.Hour},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOAuth2Provider("test", tt.src)

			_, err := p.Token(tt.ctx())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("Token() error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	tok, err := NewStaticProvider("dev-token").Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.Value != "dev-token" {
		t.Errorf("Token().Value = %q, want %q", tok.Value, "dev-token")
	}

	if _, err := NewStaticProvider("").Token(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("empty StaticProvider error = %v, want ErrUnavailable", err)
	}
}
