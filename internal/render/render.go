// Package render builds message text and button keyboards for each
// browse state. Every control it emits carries a navigation token that
// round-trips through nav.Parse.
package render

import (
	"fmt"
	"strings"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/nav"
	"github.com/cinephiles/cinebot/internal/telegram"
)

// MaxListRows bounds search/trending listings.
const MaxListRows = 8

// Renderer holds the playback source URL templates. Movie templates take
// the item id; TV templates take series id, season and episode.
type Renderer struct {
	movieSources []string
	tvSources    []string
}

// New creates a Renderer with the configured source templates.
func New(movieSources, tvSources []string) *Renderer {
	return &Renderer{movieSources: movieSources, tvSources: tvSources}
}

// Listing renders a search/trending/upcoming result list: at most
// MaxListRows selectable rows, each opening the item, plus a menu row.
func (r *Renderer) Listing(header string, results []model.SearchResult) (string, *telegram.Keyboard) {
	var b strings.Builder
	b.WriteString(header + "\n\n")

	var rows [][]telegram.Button
	for i, res := range results {
		if i == MaxListRows {
			break
		}
		label := res.Title
		if res.Year != "" {
			label = fmt.Sprintf("%s (%s)", res.Title, res.Year)
		}
		if res.Rating > 0 {
			fmt.Fprintf(&b, "• %s (%.1f/10)\n", label, res.Rating)
		} else {
			fmt.Fprintf(&b, "• %s\n", label)
		}
		tok := nav.Token{Intent: nav.IntentOpenItem, Kind: res.Kind, ItemID: res.ID}
		rows = append(rows, []telegram.Button{{Text: label, CallbackData: tok.Encode()}})
	}
	rows = append(rows, []telegram.Button{menuButton("Back to Menu", "main")})
	return b.String(), telegram.NewKeyboard(rows...)
}

// ItemDetail renders the movie/series detail screen. liked and saved
// drive the action-row labels so the user sees current membership.
func (r *Renderer) ItemDetail(item *model.Item, liked, saved bool) (string, *telegram.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", item.Title)
	if item.ReleaseDate != "" {
		fmt.Fprintf(&b, "Released: %s\n", item.ReleaseDate)
	}
	fmt.Fprintf(&b, "Rating: %.1f/10 (%d votes)\n", item.Rating, item.VoteCount)
	if item.Kind == model.KindMovie && item.RuntimeMin > 0 {
		fmt.Fprintf(&b, "Runtime: %d minutes\n", item.RuntimeMin)
	}
	if item.Kind == model.KindTV {
		fmt.Fprintf(&b, "Seasons: %d, episodes: %d\n", item.SeasonCount, item.EpisodeCount)
	}
	if len(item.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(item.Genres, ", "))
	}
	if item.Director != "" {
		fmt.Fprintf(&b, "Director: %s\n", item.Director)
	}
	if len(item.Cast) > 0 {
		fmt.Fprintf(&b, "Cast: %s\n", strings.Join(item.Cast, ", "))
	}
	if item.Overview != "" {
		fmt.Fprintf(&b, "\n%s\n", item.Overview)
	}

	var rows [][]telegram.Button
	if item.TrailerURL != "" {
		rows = append(rows, []telegram.Button{{Text: "Watch Trailer", URL: item.TrailerURL}})
	}
	if item.Kind == model.KindMovie {
		rows = append(rows, r.MovieSources(item.ID))
	} else {
		tok := nav.Token{Intent: nav.IntentOpenSeasonList, Kind: model.KindTV, ItemID: item.ID}
		rows = append(rows, []telegram.Button{{Text: "Browse Seasons", CallbackData: tok.Encode()}})
	}
	rows = append(rows, actionRow(item.Kind, item.ID, liked, saved))
	similar := nav.Token{Intent: nav.IntentOpenSimilar, Kind: item.Kind, ItemID: item.ID}
	rows = append(rows, []telegram.Button{{Text: "Similar Titles", CallbackData: similar.Encode()}})

	return b.String(), telegram.NewKeyboard(rows...)
}

// SeasonList renders the season picker: one row per season, all of them,
// plus a back control to the item detail.
func (r *Renderer) SeasonList(item *model.Item) (string, *telegram.Keyboard) {
	text := fmt.Sprintf("*%s*\n\nSelect a season:", item.Title)

	var rows [][]telegram.Button
	for s := 1; s <= item.SeasonCount; s++ {
		tok := nav.Token{Intent: nav.IntentOpenEpisodeList, Kind: model.KindTV, ItemID: item.ID, Season: s}
		rows = append(rows, []telegram.Button{{Text: fmt.Sprintf("Season %d", s), CallbackData: tok.Encode()}})
	}
	back := nav.Token{Intent: nav.IntentOpenItem, Kind: model.KindTV, ItemID: item.ID}
	rows = append(rows, []telegram.Button{{Text: "Back", CallbackData: back.Encode()}})
	return text, telegram.NewKeyboard(rows...)
}

// EpisodeList renders one page of a season: five episode rows, paginate
// controls only where the clamping rule allows movement, and a back
// control to the season picker. page must already be clamped.
func (r *Renderer) EpisodeList(season *model.Season, page int) (string, *telegram.Keyboard) {
	total := len(season.Episodes)
	text := fmt.Sprintf("*Season %d*\nAir date: %s\nEpisodes: %d\n\nSelect an episode:",
		season.Number, season.AirDate, total)

	var rows [][]telegram.Button
	for _, ep := range nav.PageSlice(season.Episodes, page) {
		tok := nav.Token{
			Intent:  nav.IntentOpenEpisodeDetail,
			Kind:    model.KindTV,
			ItemID:  season.SeriesID,
			Season:  season.Number,
			Episode: ep.Number,
		}
		label := fmt.Sprintf("Ep %d: %s", ep.Number, ep.Name)
		rows = append(rows, []telegram.Button{{Text: label, CallbackData: tok.Encode()}})
	}

	var navRow []telegram.Button
	if page > 0 {
		tok := nav.Token{Intent: nav.IntentPaginate, Kind: model.KindTV, ItemID: season.SeriesID, Season: season.Number, Dir: nav.DirPrev}
		navRow = append(navRow, telegram.Button{Text: "Previous", CallbackData: tok.Encode()})
	}
	if page < nav.PageCount(total)-1 {
		tok := nav.Token{Intent: nav.IntentPaginate, Kind: model.KindTV, ItemID: season.SeriesID, Season: season.Number, Dir: nav.DirNext}
		navRow = append(navRow, telegram.Button{Text: "Next", CallbackData: tok.Encode()})
	}
	rows = append(rows, navRow)

	back := nav.Token{Intent: nav.IntentOpenSeasonList, Kind: model.KindTV, ItemID: season.SeriesID}
	rows = append(rows, []telegram.Button{{Text: "Back to Seasons", CallbackData: back.Encode()}})
	return text, telegram.NewKeyboard(rows...)
}

// EpisodeDetail renders the terminal episode screen with playback
// sources. backPage is the episode-list page recalled from the session
// cursor; the back control returns to exactly that page.
func (r *Renderer) EpisodeDetail(ep *model.Episode, backPage int) (string, *telegram.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "*Episode %d: %s*\n\n", ep.Number, ep.Name)
	if ep.AirDate != "" {
		fmt.Fprintf(&b, "Air date: %s\n", ep.AirDate)
	}
	fmt.Fprintf(&b, "Rating: %.1f/10\n", ep.Rating)
	if ep.Overview != "" {
		fmt.Fprintf(&b, "\n%s\n", ep.Overview)
	}
	b.WriteString("\nSelect a source:")

	var rows [][]telegram.Button
	rows = append(rows, r.TVSources(ep.SeriesID, ep.Season, ep.Number))
	back := nav.Token{Intent: nav.IntentOpenEpisodeList, Kind: model.KindTV, ItemID: ep.SeriesID, Season: ep.Season, Page: backPage}
	rows = append(rows, []telegram.Button{{Text: "Back to Episodes", CallbackData: back.Encode()}})
	return b.String(), telegram.NewKeyboard(rows...)
}

// MainMenu renders the welcome keyboard.
func (r *Renderer) MainMenu() *telegram.Keyboard {
	return telegram.NewKeyboard(
		[]telegram.Button{menuButton("Trending", "trending"), menuButton("Now Playing", "nowplaying")},
		[]telegram.Button{menuButton("Upcoming", "upcoming"), menuButton("My List", "mylist")},
		[]telegram.Button{menuButton("Settings", "settings"), menuButton("Help", "help")},
	)
}

// SettingsMenu renders the preference picker.
func (r *Renderer) SettingsMenu(s *model.Settings) (string, *telegram.Keyboard) {
	text := fmt.Sprintf("*Settings*\n\nLanguage: %s\nAdult content: %s\nNotifications: %s",
		s.Language, onOff(s.AdultContent), onOff(s.Notifications))
	return text, telegram.NewKeyboard(
		[]telegram.Button{settingsButton("Language", "language")},
		[]telegram.Button{settingsButton("Notifications", "notifications")},
		[]telegram.Button{settingsButton("Content Filters", "content")},
	)
}

// Watchlist renders the saved list with one row per item.
func (r *Renderer) Watchlist(items []*model.Item) (string, *telegram.Keyboard) {
	if len(items) == 0 {
		return "Your watchlist is empty.", nil
	}
	var b strings.Builder
	b.WriteString("*Your Watchlist:*\n\n")
	var rows [][]telegram.Button
	for _, it := range items {
		fmt.Fprintf(&b, "• %s\n", it.Title)
		tok := nav.Token{Intent: nav.IntentOpenItem, Kind: it.Kind, ItemID: it.ID}
		rows = append(rows, []telegram.Button{{Text: it.Title, CallbackData: tok.Encode()}})
	}
	return b.String(), telegram.NewKeyboard(rows...)
}

// ShareWatchlist renders the shareable list with a switch-inline control.
func (r *Renderer) ShareWatchlist(userID int64, items []*model.Item) (string, *telegram.Keyboard) {
	var b strings.Builder
	b.WriteString("*My Watchlist*\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "• %s\n", it.Title)
	}
	kb := telegram.NewKeyboard([]telegram.Button{{
		Text:              "Share Watchlist",
		SwitchInlineQuery: fmt.Sprintf("watchlist_%d", userID),
	}})
	return b.String(), kb
}

// InlineResults converts search rows to inline query articles (≤10).
func (r *Renderer) InlineResults(results []model.SearchResult) []telegram.InlineResult {
	// Telegram rejects answerInlineQuery with a null results field, so
	// an empty input still yields an empty array.
	out := make([]telegram.InlineResult, 0, len(results))
	for i, res := range results {
		if i == 10 {
			break
		}
		desc := strings.ToUpper(string(res.Kind))
		if res.Year != "" {
			desc += " (" + res.Year + ")"
		}
		if res.Overview != "" {
			ov := res.Overview
			if runes := []rune(ov); len(runes) > 150 {
				ov = string(runes[:150]) + "..."
			}
			desc += "\n" + ov
		}
		out = append(out, telegram.InlineResult{
			Type:        "article",
			ID:          fmt.Sprintf("%s_%d", res.Kind, res.ID),
			Title:       res.Title,
			Description: desc,
			ThumbURL:    res.PosterURL,
			Content: telegram.InlineResultContent{
				Text:      fmt.Sprintf("*%s* (%s)\n\n%s", res.Title, res.Year, res.Overview),
				ParseMode: "Markdown",
			},
		})
	}
	return out
}

// MovieSources renders the playback source row for a movie.
func (r *Renderer) MovieSources(id int64) []telegram.Button {
	var row []telegram.Button
	for i, tpl := range r.movieSources {
		row = append(row, telegram.Button{
			Text: fmt.Sprintf("Source %d", i+1),
			URL:  fmt.Sprintf(tpl, id),
		})
	}
	return row
}

// TVSources renders the playback source row for an episode.
func (r *Renderer) TVSources(id int64, season, episode int) []telegram.Button {
	var row []telegram.Button
	for i, tpl := range r.tvSources {
		row = append(row, telegram.Button{
			Text: fmt.Sprintf("Source %d", i+1),
			URL:  fmt.Sprintf(tpl, id, season, episode),
		})
	}
	return row
}

func actionRow(kind model.MediaKind, id int64, liked, saved bool) []telegram.Button {
	like := nav.Token{Intent: nav.IntentToggleLike, Kind: kind, ItemID: id}
	save := nav.Token{Intent: nav.IntentToggleWatchlist, Kind: kind, ItemID: id}
	share := nav.Token{Intent: nav.IntentShare, Kind: kind, ItemID: id}

	likeLabel, saveLabel := "Like", "Save"
	if liked {
		likeLabel = "Unlike"
	}
	if saved {
		saveLabel = "Unsave"
	}
	return []telegram.Button{
		{Text: likeLabel, CallbackData: like.Encode()},
		{Text: saveLabel, CallbackData: save.Encode()},
		{Text: "Share", CallbackData: share.Encode()},
	}
}

func menuButton(label, section string) telegram.Button {
	tok := nav.Token{Intent: nav.IntentOpenMenu, Section: section}
	return telegram.Button{Text: label, CallbackData: tok.Encode()}
}

func settingsButton(label, field string) telegram.Button {
	tok := nav.Token{Intent: nav.IntentOpenSettings, Section: field}
	return telegram.Button{Text: label, CallbackData: tok.Encode()}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
