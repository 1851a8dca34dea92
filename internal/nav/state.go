package nav

import "github.com/cinephiles/cinebot/internal/model"

// EpisodePageSize is the fixed episode-list page size.
const EpisodePageSize = 5

// BrowseState is the logical screen a user is viewing. States are
// reconstructed from token fields on every event, never kept live.
type BrowseState interface{ browseState() }

// SearchResults is the listing screen for a text query or a menu listing.
type SearchResults struct {
	Query string
	Page  int
}

// ItemDetail is the detail screen for a movie or series.
type ItemDetail struct {
	Kind model.MediaKind
	ID   int64
}

// SeasonList is the season picker for a series.
type SeasonList struct {
	SeriesID int64
}

// EpisodeList is one page of a season's episodes.
type EpisodeList struct {
	SeriesID int64
	Season   int
	Page     int
}

// EpisodeDetail is the terminal episode screen with playback sources.
type EpisodeDetail struct {
	SeriesID int64
	Season   int
	Episode  int
}

func (SearchResults) browseState() {}
func (ItemDetail) browseState()    {}
func (SeasonList) browseState()    {}
func (EpisodeList) browseState()   {}
func (EpisodeDetail) browseState() {}

// PageCount returns the number of episode pages for total episodes.
// Zero episodes still occupy one (empty) page.
func PageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + EpisodePageSize - 1) / EpisodePageSize
}

// ClampPage bounds page to [0, PageCount(total)-1].
func ClampPage(page, total int) int {
	if page < 0 {
		return 0
	}
	if last := PageCount(total) - 1; page > last {
		return last
	}
	return page
}

// PageSlice returns the episodes visible on the given (already clamped) page.
func PageSlice(episodes []model.Episode, page int) []model.Episode {
	start := page * EpisodePageSize
	if start >= len(episodes) {
		return nil
	}
	end := start + EpisodePageSize
	if end > len(episodes) {
		end = len(episodes)
	}
	return episodes[start:end]
}

// NextPage applies a Paginate direction to the current page and clamps the
// result. An out-of-range request lands on the same page (a no-op).
func NextPage(current, dir, total int) int {
	return ClampPage(current+dir, total)
}
