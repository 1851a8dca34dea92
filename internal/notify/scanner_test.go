package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/store/sqlite"
	"github.com/cinephiles/cinebot/internal/telegram"
)

type captureGateway struct {
	texts []string
}

func (g *captureGateway) SendText(_ context.Context, _ int64, text string, _ *telegram.Keyboard) error {
	g.texts = append(g.texts, text)
	return nil
}
func (g *captureGateway) SendPhoto(context.Context, int64, string, string, *telegram.Keyboard) error {
	return nil
}
func (g *captureGateway) EditText(context.Context, int64, int64, string, *telegram.Keyboard) error {
	return nil
}
func (g *captureGateway) DeleteMessage(context.Context, int64, int64) error { return nil }
func (g *captureGateway) AnswerCallback(context.Context, string, string) error { return nil }
func (g *captureGateway) AnswerInlineQuery(context.Context, string, []telegram.InlineResult) error {
	return nil
}

type itemMap map[int64]*model.Item

func (m itemMap) GetItem(_ context.Context, _ model.MediaKind, id int64) (*model.Item, error) {
	item, ok := m[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return item, nil
}

func TestScanAlertsOnlyUpcomingReleases(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)

	// user 7 opted in with two saved titles; only one releases this week
	require.NoError(t, st.Settings().Upsert(ctx, &model.Settings{UserID: 7, Language: "en", Notifications: true}))
	_, err = st.Watchlist().Toggle(ctx, 7, model.KindMovie, 100)
	require.NoError(t, err)
	_, err = st.Watchlist().Toggle(ctx, 7, model.KindMovie, 200)
	require.NoError(t, err)

	// user 8 saved the same soon title but has notifications off
	require.NoError(t, st.Settings().Upsert(ctx, &model.Settings{UserID: 8, Language: "en", Notifications: false}))
	_, err = st.Watchlist().Toggle(ctx, 8, model.KindMovie, 100)
	require.NoError(t, err)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	soon := now.Add(72 * time.Hour).Format("2006-01-02")
	far := now.Add(30 * 24 * time.Hour).Format("2006-01-02")

	gw := &captureGateway{}
	s := New(gw, itemMap{
		100: {ID: 100, Kind: model.KindMovie, Title: "Soon Movie", ReleaseDate: soon},
		200: {ID: 200, Kind: model.KindMovie, Title: "Far Movie", ReleaseDate: far},
	}, st, zerolog.Nop())
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.Scan(ctx))
	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0], "Soon Movie")

	// a second pass does not repeat the alert
	assert.Equal(t, 0, s.Scan(ctx))
}

func TestScanSkipsUnparseableDates(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)

	require.NoError(t, st.Settings().Upsert(ctx, &model.Settings{UserID: 7, Language: "en", Notifications: true}))
	_, err = st.Watchlist().Toggle(ctx, 7, model.KindTV, 300)
	require.NoError(t, err)

	gw := &captureGateway{}
	s := New(gw, itemMap{
		300: {ID: 300, Kind: model.KindTV, Title: "No Date", ReleaseDate: ""},
	}, st, zerolog.Nop())

	assert.Equal(t, 0, s.Scan(ctx))
	assert.Empty(t, gw.texts)
}

func TestScanSurvivesMissingItems(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.New(filepath.Join(t.TempDir(), fmt.Sprintf("notify-%d.db", time.Now().UnixNano())))
	require.NoError(t, err)

	require.NoError(t, st.Settings().Upsert(ctx, &model.Settings{UserID: 7, Language: "en", Notifications: true}))
	_, err = st.Watchlist().Toggle(ctx, 7, model.KindMovie, 999)
	require.NoError(t, err)

	gw := &captureGateway{}
	s := New(gw, itemMap{}, st, zerolog.Nop())
	assert.Equal(t, 0, s.Scan(ctx))
}
