// Package ratelimit gates how often a single user may trigger a handled
// event, using a per-user sliding window counter.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most `limit` events per user inside the trailing
// `window`. Admission for one user serializes on that user's window;
// different users never contend beyond the map lock.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[int64]*userWindow
}

type userWindow struct {
	mu    sync.Mutex
	times []time.Time
	// gone is set by Sweep when the window is removed from the map, so
	// an Admit that fetched the pointer before eviction retries on the
	// live replacement instead of recording into an orphan.
	gone bool
}

// New creates a Limiter with the given policy. A non-positive limit or
// window disables the limiter; every call is admitted.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		windows: make(map[int64]*userWindow),
	}
}

// Admit reports whether an event from userID at time now may proceed.
// Entries older than the window are pruned before the check; a rejected
// event is not counted.
func (l *Limiter) Admit(userID int64, now time.Time) bool {
	if l.limit <= 0 || l.window <= 0 {
		return true
	}

	for {
		w := l.userWindow(userID)

		w.mu.Lock()
		if w.gone {
			w.mu.Unlock()
			continue
		}

		cutoff := now.Add(-l.window)
		keep := w.times[:0]
		for _, ts := range w.times {
			if ts.After(cutoff) {
				keep = append(keep, ts)
			}
		}
		w.times = keep

		admitted := len(w.times) < l.limit
		if admitted {
			w.times = append(w.times, now)
		}
		w.mu.Unlock()
		return admitted
	}
}

// Sweep drops windows whose newest entry is older than the window,
// bounding growth for users that went quiet. Safe to run concurrently
// with Admit.
func (l *Limiter) Sweep(now time.Time) {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, w := range l.windows {
		w.mu.Lock()
		stale := len(w.times) == 0 || w.times[len(w.times)-1].Before(cutoff)
		if stale {
			w.gone = true
			delete(l.windows, id)
		}
		w.mu.Unlock()
	}
}

// Tracked returns the number of users with a live window. Used by the
// metrics surface.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) userWindow(userID int64) *userWindow {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[userID]
	if !ok {
		w = &userWindow{}
		l.windows[userID] = w
	}
	return w
}
