// Package tmdb is the metadata-service client. Every call returns a
// structured record or a typed error; nothing upstream-shaped leaks past
// this boundary.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cinephiles/cinebot/internal/model"
)

// Client calls the TMDB REST API.
type Client struct {
	client   *resty.Client
	imageURL string
}

// New creates a Client for the given base URL and API key. The timeout is
// the per-call budget; an exceeded budget surfaces as ErrUpstreamTimeout.
func New(baseURL, apiKey, imageBaseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("api_key", apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{client: c, imageURL: imageBaseURL}
}

// --- upstream payloads ---

type itemPayload struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
	Runtime       int     `json:"runtime"`
	NumberSeasons int     `json:"number_of_seasons"`
	NumberEps     int     `json:"number_of_episodes"`
	PosterPath    string  `json:"poster_path"`
	Genres        []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type listPayload struct {
	Results []struct {
		ID           int64   `json:"id"`
		MediaType    string  `json:"media_type"`
		Title        string  `json:"title"`
		Name         string  `json:"name"`
		Overview     string  `json:"overview"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		VoteAverage  float64 `json:"vote_average"`
		PosterPath   string  `json:"poster_path"`
	} `json:"results"`
}

type creditsPayload struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type videosPayload struct {
	Results []struct {
		Key  string `json:"key"`
		Type string `json:"type"`
	} `json:"results"`
}

type seasonPayload struct {
	AirDate  string `json:"air_date"`
	Episodes []struct {
		EpisodeNumber int     `json:"episode_number"`
		Name          string  `json:"name"`
		AirDate       string  `json:"air_date"`
		VoteAverage   float64 `json:"vote_average"`
		Overview      string  `json:"overview"`
	} `json:"episodes"`
}

type episodePayload struct {
	EpisodeNumber int     `json:"episode_number"`
	Name          string  `json:"name"`
	AirDate       string  `json:"air_date"`
	VoteAverage   float64 `json:"vote_average"`
	Overview      string  `json:"overview"`
}

// GetItem fetches the full record for a movie or series. For movies the
// credits and videos are folded in so the detail screen renders from one
// record.
func (c *Client) GetItem(ctx context.Context, kind model.MediaKind, id int64) (*model.Item, error) {
	var p itemPayload
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), nil, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, model.ErrNotFound
	}

	item := &model.Item{
		ID:           p.ID,
		Kind:         kind,
		Title:        firstNonEmpty(p.Title, p.Name),
		Overview:     p.Overview,
		ReleaseDate:  firstNonEmpty(p.ReleaseDate, p.FirstAirDate),
		Rating:       p.VoteAverage,
		VoteCount:    p.VoteCount,
		RuntimeMin:   p.Runtime,
		SeasonCount:  p.NumberSeasons,
		EpisodeCount: p.NumberEps,
		PosterURL:    c.poster(p.PosterPath),
	}
	for _, g := range p.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	if kind == model.KindMovie {
		// Credits and trailer are best-effort; the detail screen renders
		// without them.
		var cr creditsPayload
		if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &cr); err == nil {
			for _, crew := range cr.Crew {
				if crew.Job == "Director" {
					item.Director = crew.Name
					break
				}
			}
			for i, cast := range cr.Cast {
				if i == 3 {
					break
				}
				item.Cast = append(item.Cast, cast.Name)
			}
		}
		var vd videosPayload
		if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), nil, &vd); err == nil {
			for _, v := range vd.Results {
				if v.Type == "Trailer" {
					item.TrailerURL = "https://www.youtube.com/watch?v=" + v.Key
					break
				}
			}
		}
	}
	return item, nil
}

// GetSeason fetches one season of a series with its episode list.
func (c *Client) GetSeason(ctx context.Context, seriesID int64, season int) (*model.Season, error) {
	var p seasonPayload
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", seriesID, season), nil, &p); err != nil {
		return nil, err
	}
	if len(p.Episodes) == 0 {
		return nil, model.ErrNotFound
	}
	out := &model.Season{SeriesID: seriesID, Number: season, AirDate: p.AirDate}
	for _, e := range p.Episodes {
		out.Episodes = append(out.Episodes, model.Episode{
			SeriesID: seriesID,
			Season:   season,
			Number:   e.EpisodeNumber,
			Name:     e.Name,
			AirDate:  e.AirDate,
			Rating:   e.VoteAverage,
			Overview: e.Overview,
		})
	}
	return out, nil
}

// GetEpisode fetches a single episode record.
func (c *Client) GetEpisode(ctx context.Context, seriesID int64, season, episode int) (*model.Episode, error) {
	var p episodePayload
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", seriesID, season, episode)
	if err := c.get(ctx, path, nil, &p); err != nil {
		return nil, err
	}
	if p.EpisodeNumber == 0 {
		return nil, model.ErrNotFound
	}
	return &model.Episode{
		SeriesID: seriesID,
		Season:   season,
		Number:   p.EpisodeNumber,
		Name:     p.Name,
		AirDate:  p.AirDate,
		Rating:   p.VoteAverage,
		Overview: p.Overview,
	}, nil
}

// SearchMulti searches movies and series by free text.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]model.SearchResult, error) {
	return c.list(ctx, "/search/multi", map[string]string{"query": query, "page": "1"}, "")
}

// GetTrending lists today's trending movies and series.
func (c *Client) GetTrending(ctx context.Context) ([]model.SearchResult, error) {
	return c.list(ctx, "/trending/all/day", nil, "")
}

// GetUpcoming lists upcoming movie releases.
func (c *Client) GetUpcoming(ctx context.Context) ([]model.SearchResult, error) {
	return c.list(ctx, "/movie/upcoming", nil, model.KindMovie)
}

// GetNowPlaying lists movies currently in theaters.
func (c *Client) GetNowPlaying(ctx context.Context) ([]model.SearchResult, error) {
	return c.list(ctx, "/movie/now_playing", nil, model.KindMovie)
}

// GetSimilar lists titles similar to the given item.
func (c *Client) GetSimilar(ctx context.Context, kind model.MediaKind, id int64) ([]model.SearchResult, error) {
	return c.list(ctx, fmt.Sprintf("/%s/%d/similar", kind, id), nil, kind)
}

// HealthPing probes the configuration endpoint; used by the health checker.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/configuration")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("tmdb status %d", resp.StatusCode())
	}
	return nil
}

// list fetches a results page. fixedKind overrides the per-row media_type
// for endpoints that only ever return one kind.
func (c *Client) list(ctx context.Context, path string, params map[string]string, fixedKind model.MediaKind) ([]model.SearchResult, error) {
	var p listPayload
	if err := c.get(ctx, path, params, &p); err != nil {
		return nil, err
	}

	var out []model.SearchResult
	for _, r := range p.Results {
		kind := fixedKind
		if kind == "" {
			kind = model.MediaKind(r.MediaType)
		}
		if !kind.Valid() {
			// search/multi mixes in people; skip anything we can't open.
			continue
		}
		title := firstNonEmpty(r.Title, r.Name)
		if title == "" {
			continue
		}
		date := firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
		year := ""
		if len(date) >= 4 {
			year = date[:4]
		}
		out = append(out, model.SearchResult{
			ID:        r.ID,
			Kind:      kind,
			Title:     title,
			Year:      year,
			Rating:    r.VoteAverage,
			Overview:  r.Overview,
			PosterURL: c.poster(r.PosterPath),
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	req := c.client.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: GET %s", model.ErrUpstreamTimeout, path)
		}
		return fmt.Errorf("tmdb GET %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return model.ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: tmdb status %d", model.ErrNotFound, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("tmdb decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) poster(path string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + path
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
