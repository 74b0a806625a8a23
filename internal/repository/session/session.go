// Package session stores tile sessions: short-lived bindings from an opaque,
// URL-safe id to an upstream map resource name. Browsers only ever see the id;
// the resource name and the credential needed to read it stay on the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a session stays valid after creation. It is the same for
// every session and cannot be renewed.
const TTL = 15 * time.Minute

var (
	ErrNotFound    = errors.New("tile session not found")
	ErrExpired     = errors.New("tile session expired")
	ErrIDCollision = errors.New("tile session id collision")
)

type Session struct {
	ID           string
	ResourceName string
	CreatedAt    time.Time
}

// Expired reports whether s is past TTL at now. A session exactly TTL old is
// still valid.
func (s Session) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > TTL
}

type Store interface {
	// Create registers resourceName under a fresh id and returns the id.
	Create(ctx context.Context, resourceName string) (string, error)

	// Resolve returns the resource name for id. It returns ErrNotFound for
	// ids never issued or already removed, and ErrExpired for ids past TTL,
	// removing them so later calls see ErrNotFound.
	Resolve(ctx context.Context, id string) (string, error)

	// Sweep removes every expired session and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	Close() error
}

type Clock func() time.Time

// Option configures a store.
type Option func(*options)

type options struct {
	now Clock
}

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.now = c
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newID returns a random (v4) UUID: 122 bits from crypto/rand, only hex
// digits and dashes, so it is safe as a path segment without escaping.
func newID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id.String(), nil
}
