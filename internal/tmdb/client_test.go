package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephiles/cinebot/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "k", "https://img.test/w500", 2*time.Second)
}

func TestGetItem_Movie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "k", r.URL.Query().Get("api_key"))
		switch r.URL.Path {
		case "/movie/27205":
			_, _ = w.Write([]byte(`{"id":27205,"title":"Inception","overview":"A thief...",
				"release_date":"2010-07-15","vote_average":8.4,"vote_count":34000,
				"runtime":148,"poster_path":"/inc.jpg","genres":[{"name":"Action"},{"name":"Sci-Fi"}]}`))
		case "/movie/27205/credits":
			_, _ = w.Write([]byte(`{"cast":[{"name":"Leonardo DiCaprio"},{"name":"Joseph Gordon-Levitt"},
				{"name":"Elliot Page"},{"name":"Tom Hardy"}],
				"crew":[{"name":"Emma Thomas","job":"Producer"},{"name":"Christopher Nolan","job":"Director"}]}`))
		case "/movie/27205/videos":
			_, _ = w.Write([]byte(`{"results":[{"key":"abc123","type":"Trailer"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	item, err := c.GetItem(context.Background(), model.KindMovie, 27205)
	require.NoError(t, err)
	assert.Equal(t, "Inception", item.Title)
	assert.Equal(t, 148, item.RuntimeMin)
	assert.Equal(t, "Christopher Nolan", item.Director)
	assert.Len(t, item.Cast, 3)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", item.TrailerURL)
	assert.Equal(t, "https://img.test/w500/inc.jpg", item.PosterURL)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, item.Genres)
}

func TestGetItem_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.GetItem(context.Background(), model.KindMovie, 99)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestGetItem_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetItem(ctx, model.KindMovie, 1)
	assert.True(t, errors.Is(err, model.ErrUpstreamTimeout), "err=%v", err)
}

func TestGetSeason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/1399/season/3", r.URL.Path)
		_, _ = w.Write([]byte(`{"air_date":"2013-03-31","episodes":[
			{"episode_number":1,"name":"Valar Dohaeris","air_date":"2013-03-31","vote_average":8.0},
			{"episode_number":2,"name":"Dark Wings, Dark Words","air_date":"2013-04-07","vote_average":7.7}]}`))
	})

	season, err := c.GetSeason(context.Background(), 1399, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, season.Number)
	require.Len(t, season.Episodes, 2)
	assert.Equal(t, "Valar Dohaeris", season.Episodes[0].Name)
	assert.Equal(t, int64(1399), season.Episodes[0].SeriesID)
}

func TestSearchMulti_SkipsPeopleAndUntitled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Inception", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"results":[
			{"id":27205,"media_type":"movie","title":"Inception","release_date":"2010-07-15","vote_average":8.4},
			{"id":525,"media_type":"person","name":"Christopher Nolan"},
			{"id":1399,"media_type":"tv","name":"Game of Thrones","first_air_date":"2011-04-17","vote_average":8.4}]}`))
	})

	results, err := c.SearchMulti(context.Background(), "Inception")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, model.KindMovie, results[0].Kind)
	assert.Equal(t, "2010", results[0].Year)
	assert.Equal(t, model.KindTV, results[1].Kind)
}

func TestGetUpcoming_FixedKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/movie/upcoming", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Dune Part Three","release_date":"2026-12-18"}]}`))
	})

	results, err := c.GetUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.KindMovie, results[0].Kind)
}
