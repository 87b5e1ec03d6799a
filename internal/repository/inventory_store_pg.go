package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGInventoryStore keeps one seat bitmap row per schedule and versions it
// for compare-and-set writes.
type PGInventoryStore struct {
	pgBase
}

func NewInventoryStore(db *pgxpool.Pool) *PGInventoryStore {
	return &PGInventoryStore{pgBase{db: db}}
}

func (s *PGInventoryStore) Load(ctx context.Context, scheduleID string) (inventory.Snapshot, error) {
	var snap inventory.Snapshot
	err := s.queryRow(ctx, `SELECT seat_rows, seat_columns, bitmap, version FROM schedule_inventory WHERE schedule_id = $1`, scheduleID).
		Scan(&snap.Rows, &snap.Columns, &snap.Bitmap, &snap.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, scheduleID)
		}
		return inventory.Snapshot{}, fmt.Errorf("load inventory: %w", err)
	}
	return snap, nil
}

func (s *PGInventoryStore) CompareAndSwap(ctx context.Context, scheduleID string, version int64, bitmap []byte) (bool, error) {
	tag, err := s.exec(ctx, `UPDATE schedule_inventory SET bitmap = $3, version = version + 1 WHERE schedule_id = $1 AND version = $2`,
		scheduleID, version, bitmap)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

var _ inventory.Store = (*PGInventoryStore)(nil)
