package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/weather_maps/pkg/logger"
	"github.com/jaennil/weather_maps/pkg/metrics"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

const sqliteStoreName = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps sessions in SQLite. With the default shared in-memory
// DSN nothing survives a restart.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
	now    Clock
}

func NewSQLiteStore(dsn string, l logger.Logger, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// shared-cache in-memory databases report SQLITE_LOCKED under concurrent writers
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	o := newOptions(opts)
	s := &SQLiteStore{
		db:     db,
		logger: l,
		now:    o.now,
	}

	err = s.runMigrations()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	l.Info("sqlite session store initialized", "dsn", dsn)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Create(ctx context.Context, resourceName string) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	query := `INSERT INTO tile_sessions (id, resource_name, created_at)
	VALUES (?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query, id, resourceName, s.now().UnixNano())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return "", ErrIDCollision
		}
		s.logger.Error("sqlite session insert failed", "error", err)
		return "", err
	}

	metrics.SessionsCreated.WithLabelValues(sqliteStoreName).Inc()
	return id, nil
}

func (s *SQLiteStore) Resolve(ctx context.Context, id string) (string, error) {
	query := `SELECT resource_name, created_at
	FROM tile_sessions
	WHERE id = ?`

	var (
		resourceName string
		createdAt    int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&resourceName, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			metrics.SessionResolves.WithLabelValues(sqliteStoreName, "not_found").Inc()
			return "", ErrNotFound
		}
		s.logger.Error("sqlite session lookup failed", "error", err)
		return "", err
	}

	entry := Session{ID: id, ResourceName: resourceName, CreatedAt: time.Unix(0, createdAt)}
	if entry.Expired(s.now()) {
		_, err := s.db.ExecContext(ctx, `DELETE FROM tile_sessions WHERE id = ? AND created_at = ?`, id, createdAt)
		if err != nil {
			s.logger.Error("sqlite session delete failed", "error", err)
			return "", err
		}
		metrics.SessionResolves.WithLabelValues(sqliteStoreName, "expired").Inc()
		return "", ErrExpired
	}

	metrics.SessionResolves.WithLabelValues(sqliteStoreName, "ok").Inc()
	return resourceName, nil
}

func (s *SQLiteStore) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-TTL).UnixNano()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tile_sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	metrics.SessionsSwept.WithLabelValues(sqliteStoreName).Add(float64(n))
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
