package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/demovote/internal/scenario"
)

var ErrNotFound = errors.New("not found")

// ScenarioStore holds the single persisted scenario slot. Values are opaque
// bytes; parsing is left to the caller.
type ScenarioStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// LoadRecord reads the slot and turns it into the record to render. An
// absent or unreadable slot yields the default record; a malformed one is
// logged and also yields the default.
func LoadRecord(ctx context.Context, store ScenarioStore, logger *slog.Logger) (scenario.Record, bool) {
	raw, err := store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Error("loading scenario", "error", err)
	}
	rec, isDefault, parseErr := scenario.LoadOrDefault(raw, err)
	if parseErr != nil {
		logger.Warn("stored scenario is malformed, using default", "error", parseErr)
	}
	return rec, isDefault
}

// SaveInput validates in, builds the record and replaces the slot with it.
// Nothing is written when validation fails.
func SaveInput(ctx context.Context, store ScenarioStore, in scenario.Input, now time.Time) (scenario.Record, error) {
	rec, err := scenario.Build(in, now)
	if err != nil {
		return scenario.Record{}, err
	}
	data, err := scenario.Encode(rec)
	if err != nil {
		return scenario.Record{}, fmt.Errorf("encoding scenario: %w", err)
	}
	if err := store.Save(ctx, data); err != nil {
		return scenario.Record{}, fmt.Errorf("saving scenario: %w", err)
	}
	return rec, nil
}
