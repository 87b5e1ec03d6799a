package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepository interface {
	InitializedAt(ctx context.Context) (time.Time, error)
	// Reset clears every reservation, frees all seats and locks, forgets
	// user activity and restarts the world clock at at.
	Reset(ctx context.Context, at time.Time) error
}

type PGSettingsRepository struct {
	pgBase
}

func NewSettingsRepository(db *pgxpool.Pool) SettingsRepository {
	return &PGSettingsRepository{pgBase{db: db}}
}

func (r *PGSettingsRepository) InitializedAt(ctx context.Context) (time.Time, error) {
	var at time.Time
	if err := r.queryRow(ctx, `SELECT initialized_at FROM settings WHERE id = 1`).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%w: world clock not initialized", domain.ErrInvalidTime)
		}
		return time.Time{}, fmt.Errorf("get settings: %w", err)
	}
	return at, nil
}

func (r *PGSettingsRepository) Reset(ctx context.Context, at time.Time) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		statements := []string{
			`DELETE FROM reservations`,
			`DELETE FROM schedule_locks`,
			`UPDATE users SET last_activity_at = NULL`,
			`UPDATE schedule_inventory SET bitmap = decode(repeat('00', octet_length(bitmap)), 'hex'), version = version + 1`,
		}
		for _, stmt := range statements {
			if _, err := r.exec(ctx, stmt); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		if _, err := r.exec(ctx, `INSERT INTO settings (id, initialized_at) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET initialized_at = EXCLUDED.initialized_at`, at); err != nil {
			return fmt.Errorf("reset settings: %w", err)
		}
		return nil
	})
}

var _ SettingsRepository = (*PGSettingsRepository)(nil)
