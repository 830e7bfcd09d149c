// Package store persists operator overrides: final values chosen per
// (car, feature) and raw cell edits per (car, feature, source). Overrides
// survive restarts and car switches and are cleared only by a full reset.
package store

import "context"

// Store is the override persistence interface. Implementations must namespace
// keys by car and feature so overrides never collide across cars. All writes
// report failure to the caller instead of dropping edits silently.
type Store interface {
	// SetFinal records the operator-chosen final value for a feature.
	SetFinal(ctx context.Context, car, feature, value string) error
	// GetFinal returns the stored final value; ok is false when none is set.
	GetFinal(ctx context.Context, car, feature string) (value string, ok bool, err error)

	// SetCell records an operator edit of one raw source cell.
	SetCell(ctx context.Context, car, feature string, source int, value string) error
	// GetCell returns the stored cell edit; ok is false when none is set.
	GetCell(ctx context.Context, car, feature string, source int) (value string, ok bool, err error)

	// ResetAll unconditionally clears every stored override. There is no
	// per-key delete; callers gate this behind operator confirmation.
	ResetAll(ctx context.Context) error

	// Migrate creates the backing schema if needed.
	Migrate(ctx context.Context) error
	Close() error
}
