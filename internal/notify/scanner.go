// Package notify scans users' watchlists on a schedule and alerts them
// about titles releasing soon.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/store"
	"github.com/cinephiles/cinebot/internal/telegram"
)

// releaseWindow is how far ahead a release still counts as "soon".
const releaseWindow = 7 * 24 * time.Hour

// ItemFetcher is the one catalog call the scanner needs.
type ItemFetcher interface {
	GetItem(ctx context.Context, kind model.MediaKind, id int64) (*model.Item, error)
}

// Scanner walks the watchlists of users with notifications enabled and
// sends one alert per upcoming title. Alerts already sent are remembered
// in memory so a daily scan does not repeat itself within one process
// lifetime.
type Scanner struct {
	gateway telegram.Gateway
	meta    ItemFetcher
	store   store.Store
	log     zerolog.Logger
	now     func() time.Time

	mu   sync.Mutex
	sent map[string]bool
}

// New creates a Scanner.
func New(gw telegram.Gateway, meta ItemFetcher, st store.Store, log zerolog.Logger) *Scanner {
	return &Scanner{
		gateway: gw,
		meta:    meta,
		store:   st,
		log:     log.With().Str("component", "notify").Logger(),
		now:     time.Now,
		sent:    make(map[string]bool),
	}
}

// Scan runs one pass and returns how many alerts were delivered. Failures
// on individual users or items are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) int {
	users, err := s.store.Settings().NotifiableUsers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("notifiable users query failed")
		return 0
	}

	delivered := 0
	for _, userID := range users {
		entries, err := s.store.Watchlist().Entries(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("watchlist read failed")
			continue
		}
		for _, e := range entries {
			if s.alert(ctx, userID, e) {
				delivered++
			}
		}
	}
	return delivered
}

func (s *Scanner) alert(ctx context.Context, userID int64, e model.WatchEntry) bool {
	key := fmt.Sprintf("%d/%s/%d", userID, e.Kind, e.ItemID)
	s.mu.Lock()
	done := s.sent[key]
	s.mu.Unlock()
	if done {
		return false
	}

	item, err := s.meta.GetItem(ctx, e.Kind, e.ItemID)
	if err != nil {
		s.log.Debug().Err(err).Int64("item_id", e.ItemID).Msg("item lookup failed")
		return false
	}
	release, err := time.Parse("2006-01-02", item.ReleaseDate)
	if err != nil {
		return false
	}

	now := s.now()
	if release.Before(now) || release.After(now.Add(releaseWindow)) {
		return false
	}

	text := fmt.Sprintf("*%s* from your watchlist releases on %s!", item.Title, item.ReleaseDate)
	if err := s.gateway.SendText(ctx, userID, text, nil); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("alert delivery failed")
		return false
	}

	s.mu.Lock()
	s.sent[key] = true
	s.mu.Unlock()
	return true
}

// Start runs Scan on a fixed period until ctx is cancelled.
func (s *Scanner) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Scan(ctx); n > 0 {
					s.log.Info().Int("alerts", n).Msg("release scan")
				}
			}
		}
	}()
}
