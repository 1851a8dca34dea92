// Package storetest holds a compliance suite run against every store
// backend.
package storetest

import (
	"context"
	"testing"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/store"
)

// Run exercises the store contract. Implementations should provide a
// clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	const userID = int64(700123)

	// Watchlist toggle pair: add, then remove.
	added, err := s.Watchlist().Toggle(ctx, userID, model.KindMovie, 27205)
	if err != nil || !added {
		t.Fatalf("Toggle add: added=%v err=%v", added, err)
	}
	if ok, err := s.Watchlist().Contains(ctx, userID, model.KindMovie, 27205); err != nil || !ok {
		t.Fatalf("Contains after add: ok=%v err=%v", ok, err)
	}
	added, err = s.Watchlist().Toggle(ctx, userID, model.KindMovie, 27205)
	if err != nil || added {
		t.Fatalf("Toggle remove: added=%v err=%v", added, err)
	}
	if ok, _ := s.Watchlist().Contains(ctx, userID, model.KindMovie, 27205); ok {
		t.Fatal("Contains after remove: still a member")
	}

	// Watchlist and likes are independent sets.
	if _, err := s.Likes().Toggle(ctx, userID, model.KindTV, 1399); err != nil {
		t.Fatalf("Likes toggle: %v", err)
	}
	if ok, _ := s.Watchlist().Contains(ctx, userID, model.KindTV, 1399); ok {
		t.Fatal("likes entry leaked into watchlist")
	}

	// Entries are listed per user.
	if _, err := s.Watchlist().Toggle(ctx, userID, model.KindMovie, 603); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	entries, err := s.Watchlist().Entries(ctx, userID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Entries: n=%d err=%v", len(entries), err)
	}
	if entries[0].ItemID != 603 || entries[0].Kind != model.KindMovie {
		t.Fatalf("Entries: unexpected row %+v", entries[0])
	}
	if other, _ := s.Watchlist().Entries(ctx, userID+1); len(other) != 0 {
		t.Fatalf("Entries leaked across users: %d", len(other))
	}

	// Settings: missing, then upserted, then updated.
	if _, err := s.Settings().Get(ctx, userID); err == nil {
		t.Fatal("Settings.Get on missing user: expected error")
	}
	if err := s.Settings().Upsert(ctx, model.DefaultSettings(userID)); err != nil {
		t.Fatalf("Settings.Upsert: %v", err)
	}
	got, err := s.Settings().Get(ctx, userID)
	if err != nil || got.Language != "en" || !got.Notifications {
		t.Fatalf("Settings.Get: got=%+v err=%v", got, err)
	}
	got.Notifications = false
	if err := s.Settings().Upsert(ctx, got); err != nil {
		t.Fatalf("Settings.Upsert update: %v", err)
	}
	got, _ = s.Settings().Get(ctx, userID)
	if got.Notifications {
		t.Fatal("Settings update not persisted")
	}

	// NotifiableUsers follows the notifications flag.
	other := model.DefaultSettings(userID + 1)
	if err := s.Settings().Upsert(ctx, other); err != nil {
		t.Fatalf("Settings.Upsert other: %v", err)
	}
	ids, err := s.Settings().NotifiableUsers(ctx)
	if err != nil {
		t.Fatalf("NotifiableUsers: %v", err)
	}
	for _, id := range ids {
		if id == userID {
			t.Fatal("user with notifications disabled listed as notifiable")
		}
	}

	// Feedback gets an id and a timestamp.
	fb, err := s.Feedback().Create(ctx, &model.Feedback{UserHash: "deadbeef", Body: "more sources please"})
	if err != nil {
		t.Fatalf("Feedback.Create: %v", err)
	}
	if fb.FeedbackID == "" || fb.CreationTime.IsZero() || fb.Category != "general" {
		t.Fatalf("Feedback.Create: incomplete record %+v", fb)
	}
}
