package server

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SlotStore keeps one named value in the scenario_slots table.
type SlotStore struct {
	db   *sql.DB
	slot string
	now  func() time.Time
}

func NewSlotStore(db *sql.DB, slot string) *SlotStore {
	return &SlotStore{db: db, slot: slot, now: time.Now}
}

func (s *SlotStore) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scenario_slots WHERE slot = ?`, s.slot,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Save replaces the whole value of the slot.
func (s *SlotStore) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenario_slots (slot, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, s.slot, string(data), s.now().UTC().Format(time.RFC3339))
	return err
}

// Clear empties the slot. Clearing an empty slot returns ErrNotFound.
func (s *SlotStore) Clear(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenario_slots WHERE slot = ?`, s.slot)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SlotStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpdatedAt reports when the slot was last written.
func (s *SlotStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM scenario_slots WHERE slot = ?`, s.slot,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, ts)
}
