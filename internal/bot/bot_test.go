package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/ratelimit"
	"github.com/cinephiles/cinebot/internal/render"
	"github.com/cinephiles/cinebot/internal/session"
	"github.com/cinephiles/cinebot/internal/store/sqlite"
	"github.com/cinephiles/cinebot/internal/telegram"
)

// --- fakes ---

type sentMessage struct {
	chatID int64
	text   string
	kb     *telegram.Keyboard
}

type fakeGateway struct {
	mu        sync.Mutex
	texts     []sentMessage
	photos    []sentMessage
	edits     []sentMessage
	acks      []string
	inline    [][]telegram.InlineResult
	failPhoto bool
}

func (g *fakeGateway) SendText(_ context.Context, chatID int64, text string, kb *telegram.Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentMessage{chatID, text, kb})
	return nil
}

func (g *fakeGateway) SendPhoto(_ context.Context, chatID int64, _ string, caption string, kb *telegram.Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failPhoto {
		return fmt.Errorf("%w: photo rejected", model.ErrDelivery)
	}
	g.photos = append(g.photos, sentMessage{chatID, caption, kb})
	return nil
}

func (g *fakeGateway) EditText(_ context.Context, chatID, _ int64, text string, kb *telegram.Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits = append(g.edits, sentMessage{chatID, text, kb})
	return nil
}

func (g *fakeGateway) DeleteMessage(context.Context, int64, int64) error { return nil }

func (g *fakeGateway) AnswerCallback(_ context.Context, _ string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acks = append(g.acks, text)
	return nil
}

func (g *fakeGateway) AnswerInlineQuery(_ context.Context, _ string, results []telegram.InlineResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inline = append(g.inline, results)
	return nil
}

func (g *fakeGateway) ackCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.acks)
}

func (g *fakeGateway) lastAck() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.acks) == 0 {
		return ""
	}
	return g.acks[len(g.acks)-1]
}

type fakeMeta struct {
	mu           sync.Mutex
	items        map[string]*model.Item
	seasons      map[string]*model.Season
	searches     map[string][]model.SearchResult
	trending     []model.SearchResult
	getItemCalls int
}

func metaKey(kind model.MediaKind, id int64) string { return fmt.Sprintf("%s/%d", kind, id) }

func (m *fakeMeta) GetItem(_ context.Context, kind model.MediaKind, id int64) (*model.Item, error) {
	m.mu.Lock()
	m.getItemCalls++
	item, ok := m.items[metaKey(kind, id)]
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return item, nil
}

func (m *fakeMeta) GetSeason(_ context.Context, seriesID int64, season int) (*model.Season, error) {
	s, ok := m.seasons[fmt.Sprintf("%d/%d", seriesID, season)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s, nil
}

func (m *fakeMeta) GetEpisode(_ context.Context, seriesID int64, seasonNum, episode int) (*model.Episode, error) {
	s, err := m.GetSeason(nil, seriesID, seasonNum)
	if err != nil {
		return nil, err
	}
	for _, ep := range s.Episodes {
		if ep.Number == episode {
			out := ep
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *fakeMeta) SearchMulti(_ context.Context, query string) ([]model.SearchResult, error) {
	return m.searches[query], nil
}

func (m *fakeMeta) GetTrending(context.Context) ([]model.SearchResult, error)   { return m.trending, nil }
func (m *fakeMeta) GetUpcoming(context.Context) ([]model.SearchResult, error)   { return nil, nil }
func (m *fakeMeta) GetNowPlaying(context.Context) ([]model.SearchResult, error) { return nil, nil }
func (m *fakeMeta) GetSimilar(context.Context, model.MediaKind, int64) ([]model.SearchResult, error) {
	return nil, nil
}

// --- fixtures ---

func inceptionMeta() *fakeMeta {
	inception := &model.Item{
		ID: 27205, Kind: model.KindMovie, Title: "Inception",
		Rating: 8.4, PosterURL: "https://img.test/inception.jpg", RuntimeMin: 148,
	}
	thrones := &model.Item{
		ID: 1399, Kind: model.KindTV, Title: "Game of Thrones", SeasonCount: 8,
	}
	s2 := &model.Season{SeriesID: 1399, Number: 2, AirDate: "2012-04-01"}
	for i := 1; i <= 12; i++ {
		s2.Episodes = append(s2.Episodes, model.Episode{
			SeriesID: 1399, Season: 2, Number: i, Name: fmt.Sprintf("Episode %d", i),
		})
	}
	return &fakeMeta{
		items: map[string]*model.Item{
			metaKey(model.KindMovie, 27205): inception,
			metaKey(model.KindTV, 1399):     thrones,
		},
		seasons: map[string]*model.Season{"1399/2": s2},
		searches: map[string][]model.SearchResult{
			"Inception": {{ID: 27205, Kind: model.KindMovie, Title: "Inception", Year: "2010", Rating: 8.4}},
		},
		trending: []model.SearchResult{{ID: 27205, Kind: model.KindMovie, Title: "Inception", Year: "2010"}},
	}
}

func newTestBot(t *testing.T, gw *fakeGateway, meta Metadata, limit int) *Bot {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)

	return New(
		gw,
		meta,
		st,
		session.NewStore(30*time.Minute),
		ratelimit.New(limit, time.Minute),
		render.New([]string{"https://example.test/movie/%d"}, []string{"https://example.test/tv/%d/%d/%d"}),
		zerolog.Nop(),
	)
}

func callback(userID int64, data string) *telegram.CallbackQuery {
	return &telegram.CallbackQuery{
		ID:   "cb-1",
		From: telegram.User{ID: userID},
		Message: &telegram.Message{
			MessageID: 100,
			Chat:      telegram.Chat{ID: userID},
		},
		Data: data,
	}
}

func message(userID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: 1,
		From:      &telegram.User{ID: userID, FirstName: "Sam"},
		Chat:      telegram.Chat{ID: userID},
		Text:      text,
	}
}

// --- tests ---

func TestSearchToDetailFlow(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	b.HandleMessage(ctx, message(7, "Inception"))
	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0].text, "Inception")
	require.NotNil(t, gw.texts[0].kb)
	assert.Equal(t, "movie_27205", gw.texts[0].kb.Rows[0][0].CallbackData)

	b.HandleCallback(ctx, callback(7, "movie_27205"))
	assert.Equal(t, 1, gw.ackCount())
	require.Len(t, gw.photos, 1)
	assert.Contains(t, gw.photos[0].text, "Inception")
	assert.Contains(t, gw.photos[0].text, "148 minutes")
}

func TestCallbackAlwaysAcksExactlyOnce(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"success", "movie_27205"},
		{"not found", "movie_99999"},
		{"malformed", "movie_abc"},
		{"unknown tag", "bogus_1"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{}
			b := newTestBot(t, gw, inceptionMeta(), 20)
			b.HandleCallback(context.Background(), callback(7, tc.data))
			assert.Equal(t, 1, gw.ackCount())
		})
	}
}

func TestMalformedTokenFailsClosed(t *testing.T) {
	gw := &fakeGateway{}
	meta := inceptionMeta()
	b := newTestBot(t, gw, meta, 20)

	b.HandleCallback(context.Background(), callback(7, "movie_NaN"))

	assert.Equal(t, 0, meta.getItemCalls)
	assert.Empty(t, gw.texts)
	assert.Empty(t, gw.photos)
	assert.Equal(t, 1, gw.ackCount())
	assert.Contains(t, gw.lastAck(), "expired")
}

func TestRateLimitedCallbackShortCircuits(t *testing.T) {
	gw := &fakeGateway{}
	meta := inceptionMeta()
	b := newTestBot(t, gw, meta, 1)
	ctx := context.Background()

	b.HandleCallback(ctx, callback(7, "movie_27205"))
	require.Equal(t, 1, meta.getItemCalls)

	// second press inside the window: acked but never dispatched
	b.HandleCallback(ctx, callback(7, "movie_27205"))
	assert.Equal(t, 1, meta.getItemCalls)
	assert.Equal(t, 2, gw.ackCount())
	assert.Contains(t, gw.lastAck(), "too fast")
}

func TestToggleReportsResultingState(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	b.HandleCallback(ctx, callback(7, "save_movie_27205"))
	assert.Contains(t, gw.lastAck(), "Added to watchlist")

	b.HandleCallback(ctx, callback(7, "save_movie_27205"))
	assert.Contains(t, gw.lastAck(), "Removed from watchlist")

	b.HandleCallback(ctx, callback(7, "like_movie_27205"))
	assert.Contains(t, gw.lastAck(), "Added to likes")
}

func TestConcurrentTogglesKeepParity(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 0) // limiter disabled
	ctx := context.Background()

	const presses = 7
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.HandleCallback(ctx, callback(7, "save_movie_27205"))
		}()
	}
	wg.Wait()

	assert.Equal(t, presses, gw.ackCount())
	member, err := b.store.Watchlist().Contains(ctx, 7, model.KindMovie, 27205)
	require.NoError(t, err)
	// odd number of toggles ends as a member
	assert.True(t, member)
}

func TestPaginationUsesSessionCursor(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	// open season 2 page 0
	b.HandleCallback(ctx, callback(7, "season_1399_2_0"))
	require.Len(t, gw.edits, 1)
	assert.Contains(t, gw.edits[0].text, "Season 2")
	assert.Equal(t, 0, b.sessions.Cursor(7))

	// next page advances the cursor
	b.HandleCallback(ctx, callback(7, "page_1399_2_next"))
	require.Len(t, gw.edits, 2)
	assert.Equal(t, 1, b.sessions.Cursor(7))

	// episode detail's back control carries the cursor page
	b.HandleCallback(ctx, callback(7, "episode_1399_2_7"))
	require.Len(t, gw.edits, 3)
	detail := gw.edits[2]
	back := detail.kb.Rows[len(detail.kb.Rows)-1][0]
	assert.Equal(t, "season_1399_2_1", back.CallbackData)

	// prev at page 1 returns to 0; prev again clamps at 0
	b.HandleCallback(ctx, callback(7, "page_1399_2_prev"))
	assert.Equal(t, 0, b.sessions.Cursor(7))
	b.HandleCallback(ctx, callback(7, "page_1399_2_prev"))
	assert.Equal(t, 0, b.sessions.Cursor(7))
}

// gatedSeasonMeta holds every GetSeason call until all expected callers
// have arrived, forcing the widest possible interleave window.
type gatedSeasonMeta struct {
	*fakeMeta
	gate sync.WaitGroup
}

func (m *gatedSeasonMeta) GetSeason(ctx context.Context, seriesID int64, season int) (*model.Season, error) {
	m.gate.Done()
	m.gate.Wait()
	return m.fakeMeta.GetSeason(ctx, seriesID, season)
}

func TestRapidNextPressesEachAdvanceCursor(t *testing.T) {
	gw := &fakeGateway{}
	meta := &gatedSeasonMeta{fakeMeta: inceptionMeta()}
	meta.gate.Add(2)
	b := newTestBot(t, gw, meta, 20)
	ctx := context.Background()

	// Both presses fetch the season concurrently; both then advance the
	// cursor. Neither advance may be lost: 0 -> 1 -> 2.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.HandleCallback(ctx, callback(7, "page_1399_2_next"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, b.sessions.Cursor(7))
	assert.Equal(t, 2, gw.ackCount())
}

func TestOutOfRangePageClamps(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)

	// 12 episodes means pages 0..2; 9 clamps to the last page
	b.HandleCallback(context.Background(), callback(7, "season_1399_2_9"))
	assert.Equal(t, 2, b.sessions.Cursor(7))
}

func TestPhotoFallsBackToText(t *testing.T) {
	gw := &fakeGateway{failPhoto: true}
	b := newTestBot(t, gw, inceptionMeta(), 20)

	b.HandleCallback(context.Background(), callback(7, "movie_27205"))

	assert.Empty(t, gw.photos)
	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0].text, "Inception")
}

func TestStartCommandSendsMenu(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)

	b.HandleMessage(context.Background(), message(7, "/start"))

	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0].text, "Sam")
	require.NotNil(t, gw.texts[0].kb)
	assert.Equal(t, "menu_trending", gw.texts[0].kb.Rows[0][0].CallbackData)
}

func TestFeedbackStored(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	b.HandleMessage(ctx, message(7, "/feedback the episode pages are great"))

	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0].text, "Thanks")
}

func TestSettingsToggleRoundTrips(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	// defaults have notifications on; the toggle turns them off and persists
	b.HandleCallback(ctx, callback(7, "settings_notifications"))
	assert.Contains(t, gw.lastAck(), "Settings updated")

	s, err := b.store.Settings().Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, s.Notifications)

	b.HandleCallback(ctx, callback(7, "settings_notifications"))
	s, err = b.store.Settings().Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, s.Notifications)
}

func TestInlineQueryAnswersTrendingWhenEmpty(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)

	b.HandleUpdate(context.Background(), telegram.Update{
		InlineQuery: &telegram.InlineQuery{ID: "iq-1", From: telegram.User{ID: 7}, Query: ""},
	})

	require.Len(t, gw.inline, 1)
	require.Len(t, gw.inline[0], 1)
	assert.Equal(t, "movie_27205", gw.inline[0][0].ID)
	assert.Equal(t, "Inception", gw.inline[0][0].Title)
}

func TestUpdateDispatch(t *testing.T) {
	gw := &fakeGateway{}
	b := newTestBot(t, gw, inceptionMeta(), 20)
	ctx := context.Background()

	b.HandleUpdate(ctx, telegram.Update{Message: message(7, "/help")})
	require.Len(t, gw.texts, 1)
	assert.Contains(t, gw.texts[0].text, "/trending")

	b.HandleUpdate(ctx, telegram.Update{CallbackQuery: callback(7, "menu_trending")})
	assert.Equal(t, 1, gw.ackCount())
	require.Len(t, gw.texts, 2)
	assert.Contains(t, gw.texts[1].text, "Trending")
}
