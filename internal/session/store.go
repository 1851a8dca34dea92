// Package session tracks per-user activity and the ephemeral browse
// cursor, with time-based eviction of idle users.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Session is the per-user ephemeral record. Cursor is the episode-list
// page last shown to the user; it is only meaningful while an episode
// list is on screen.
type Session struct {
	UserID       int64
	LastActivity time.Time
	Cursor       int
}

// Store owns all sessions. Mutations for one user are atomic; different
// users only contend on the map lock.
type Store struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, sessions: make(map[int64]*Session)}
}

// Touch upserts the user's last-activity timestamp. Creation is idempotent.
func (s *Store) Touch(userID int64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.LastActivity = now
		return
	}
	s.sessions[userID] = &Session{UserID: userID, LastActivity: now}
}

// Get returns a copy of the user's session, or false if none exists.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// SetCursor records the episode-list page for the user, creating the
// session if the sweeper removed it between events.
func (s *Store) SetCursor(userID int64, page int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID, LastActivity: now}
		s.sessions[userID] = sess
	}
	sess.Cursor = page
	sess.LastActivity = now
}

// UpdateCursor atomically applies fn to the user's cursor and returns
// the new value. Read and write happen in one critical section, so two
// concurrent updates for the same user never both observe the old page.
// Creates the session if the sweeper removed it.
func (s *Store) UpdateCursor(userID int64, now time.Time, fn func(current int) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID, LastActivity: now}
		s.sessions[userID] = sess
	}
	sess.Cursor = fn(sess.Cursor)
	sess.LastActivity = now
	return sess.Cursor
}

// Cursor returns the stored episode-list page, or 0 when no session exists.
func (s *Store) Cursor(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.Cursor
	}
	return 0
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes every session idle longer than the TTL and returns how
// many were evicted. A session touched while the sweep runs keeps its
// fresh timestamp and survives.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	// Snapshot candidate ids first so the write lock is never held for
	// the whole scan.
	s.mu.RLock()
	candidates := make([]int64, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range candidates {
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok && sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// StartSweeper runs Sweep on a fixed period until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(time.Now()); n > 0 {
					log.Debug().Int("evicted", n).Msg("session sweep")
				}
			}
		}
	}()
}
