package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/weather_maps/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const redisStoreName = "redis"

// RedisStore shares sessions between replicas. Keys outlive TTL by the
// retention window so an expired session still resolves as ErrExpired
// rather than ErrNotFound; redis drops them after that.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       Clock
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	Retention time.Duration
}

var ErrInvalidRetention = errors.New("redis session retention must be positive")

type redisEntry struct {
	ResourceName string `json:"name"`
	CreatedAt    int64  `json:"created_at"`
}

// NewRedisStore connects to redis. Retention must be positive: with no
// retention the key disappears together with the session and an expired id
// could never be told apart from an unknown one.
func NewRedisStore(cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRetention, cfg.Retention)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "tilesession:"
	}

	o := newOptions(opts)
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		retention: cfg.Retention,
		now:       o.now,
	}, nil
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) keyFor(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Create(ctx context.Context, resourceName string) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(redisEntry{
		ResourceName: resourceName,
		CreatedAt:    s.now().UnixNano(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.keyFor(id), data, TTL+s.retention).Result()
	if err != nil {
		return "", fmt.Errorf("redis set error: %w", err)
	}
	if !ok {
		return "", ErrIDCollision
	}

	metrics.SessionsCreated.WithLabelValues(redisStoreName).Inc()
	return id, nil
}

func (s *RedisStore) Resolve(ctx context.Context, id string) (string, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.SessionResolves.WithLabelValues(redisStoreName, "not_found").Inc()
		}
		return "", err
	}

	if entry.Expired(s.now()) {
		if err := s.client.Del(ctx, s.keyFor(id)).Err(); err != nil {
			return "", fmt.Errorf("redis del error: %w", err)
		}
		metrics.SessionResolves.WithLabelValues(redisStoreName, "expired").Inc()
		return "", ErrExpired
	}

	metrics.SessionResolves.WithLabelValues(redisStoreName, "ok").Inc()
	return entry.ResourceName, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (Session, error) {
	data, err := s.client.Get(ctx, s.keyFor(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("redis get error: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return Session{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	return Session{
		ID:           id,
		ResourceName: e.ResourceName,
		CreatedAt:    time.Unix(0, e.CreatedAt),
	}, nil
}

// Sweep walks the key space and removes expired sessions still inside
// their retention window.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(s.prefix):]

		entry, err := s.load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, err
		}
		if !entry.Expired(now) {
			continue
		}

		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("redis del error: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan error: %w", err)
	}

	metrics.SessionsSwept.WithLabelValues(redisStoreName).Add(float64(removed))
	return removed, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
