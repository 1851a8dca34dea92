// Package store defines the persistence surface for per-user state:
// watchlist, likes, settings and feedback. Implementations live under
// internal/store/<driver>/ (sqlite, postgres).
package store

import (
	"context"

	"github.com/cinephiles/cinebot/internal/model"
)

// Store exposes persistence operations required by the bot.
type Store interface {
	Watchlist() List
	Likes() List
	Settings() Settings
	Feedback() Feedback
}

// List is a per-user set of media items with toggle semantics. Toggle is
// atomic: applying it twice returns membership to its original state.
type List interface {
	// Toggle flips membership and reports the resulting state
	// (true = now a member).
	Toggle(ctx context.Context, userID int64, kind model.MediaKind, itemID int64) (bool, error)
	Contains(ctx context.Context, userID int64, kind model.MediaKind, itemID int64) (bool, error)
	Entries(ctx context.Context, userID int64) ([]model.WatchEntry, error)
}

// Settings reads and writes the per-user preference record.
type Settings interface {
	// Get returns the stored record, or model.ErrNotFound when the user
	// has never saved preferences.
	Get(ctx context.Context, userID int64) (*model.Settings, error)
	Upsert(ctx context.Context, s *model.Settings) error
	// NotifiableUsers lists users with notifications enabled; used by the
	// release-notification scan.
	NotifiableUsers(ctx context.Context) ([]int64, error)
}

// Feedback appends user reports.
type Feedback interface {
	Create(ctx context.Context, f *model.Feedback) (*model.Feedback, error)
}
