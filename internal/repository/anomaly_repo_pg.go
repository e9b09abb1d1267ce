package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AnomalyRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, a domain.StatusAnomaly) error
	CountByStatus(ctx context.Context, since time.Time) (map[domain.BookingStatus]int64, error)
	LastSeen(ctx context.Context, status domain.BookingStatus) (time.Time, error)
}

type PGAnomalyRepository struct {
	db DB
}

func NewAnomalyRepository(db DB) AnomalyRepository {
	return &PGAnomalyRepository{db: db}
}

const createAnomaliesTable = `CREATE TABLE IF NOT EXISTS status_anomalies (
	id          BIGSERIAL PRIMARY KEY,
	status      TEXT        NOT NULL,
	source      TEXT        NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (r *PGAnomalyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createAnomaliesTable); err != nil {
		return fmt.Errorf("create status_anomalies: %w", err)
	}
	return nil
}

func (r *PGAnomalyRepository) Insert(ctx context.Context, a domain.StatusAnomaly) error {
	if a.Status == "" {
		return errors.New("anomaly status is required")
	}
	if a.ObservedAt.IsZero() {
		a.ObservedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO status_anomalies (status, source, observed_at) VALUES ($1, $2, $3)`,
		string(a.Status), a.Source, a.ObservedAt)
	return err
}

func (r *PGAnomalyRepository) CountByStatus(ctx context.Context, since time.Time) (map[domain.BookingStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM status_anomalies WHERE observed_at >= $1 GROUP BY status ORDER BY status`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BookingStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.BookingStatus(status)] = n
	}
	return counts, rows.Err()
}

// LastSeen returns when status was last observed, or the zero time if never.
func (r *PGAnomalyRepository) LastSeen(ctx context.Context, status domain.BookingStatus) (time.Time, error) {
	var last *time.Time
	row := r.db.QueryRow(ctx, `SELECT max(observed_at) FROM status_anomalies WHERE status=$1`, string(status))
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}
