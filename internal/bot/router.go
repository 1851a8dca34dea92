package bot

import (
	"context"
	"fmt"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/nav"
	"github.com/cinephiles/cinebot/internal/store"
	"github.com/cinephiles/cinebot/internal/telegram"
)

// HandleCallback processes one button press. Side effects run in a fixed
// order: admission check, session touch, handler. Exactly one callback
// acknowledgement is sent per event, whatever the outcome.
func (b *Bot) HandleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	userID := cb.From.ID
	now := b.now()

	if !b.limiter.Admit(userID, now) {
		b.log.Debug().Err(model.ErrRateLimited).Int64("user_id", userID).Msg("callback rejected")
		b.ack(ctx, cb.ID, "You're pressing buttons too fast. Give it a minute.")
		return
	}
	b.sessions.Touch(userID, now)

	tok, err := nav.Parse(cb.Data)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", userID).Str("data", cb.Data).Msg("malformed callback token")
		b.ack(ctx, cb.ID, "That button has expired.")
		return
	}

	b.ack(ctx, cb.ID, b.dispatch(ctx, cb, tok))
}

func (b *Bot) ack(ctx context.Context, callbackID, text string) {
	if err := b.gateway.AnswerCallback(ctx, callbackID, text); err != nil {
		b.log.Warn().Err(err).Str("callback_id", callbackID).Msg("answer callback failed")
	}
}

// dispatch runs the handler for a parsed token and returns the
// acknowledgement toast. Handlers catch their own failures; one failed
// screen never takes down the router.
func (b *Bot) dispatch(ctx context.Context, cb *telegram.CallbackQuery, tok nav.Token) string {
	switch tok.Intent {
	case nav.IntentOpenItem:
		return b.openItem(ctx, cb, tok.Kind, tok.ItemID)
	case nav.IntentOpenSeasonList:
		return b.openSeasonList(ctx, cb, tok.ItemID)
	case nav.IntentOpenEpisodeList:
		return b.openEpisodeList(ctx, cb, tok.ItemID, tok.Season, tok.Page)
	case nav.IntentOpenEpisodeDetail:
		return b.openEpisodeDetail(ctx, cb, tok)
	case nav.IntentPaginate:
		return b.paginate(ctx, cb, tok)
	case nav.IntentToggleLike:
		return b.toggle(ctx, cb.From.ID, b.store.Likes(), "likes", tok)
	case nav.IntentToggleWatchlist:
		return b.toggle(ctx, cb.From.ID, b.store.Watchlist(), "watchlist", tok)
	case nav.IntentShare:
		return b.shareItem(ctx, cb, tok)
	case nav.IntentOpenSimilar:
		return b.openSimilar(ctx, cb, tok)
	case nav.IntentOpenMenu:
		return b.openMenu(ctx, cb, tok.Section)
	case nav.IntentOpenSettings:
		return b.changeSetting(ctx, cb, tok.Section)
	default:
		return "That button has expired."
	}
}

func (b *Bot) openItem(ctx context.Context, cb *telegram.CallbackQuery, kind model.MediaKind, id int64) string {
	item, err := b.meta.GetItem(ctx, kind, id)
	if err != nil {
		return b.upstreamToast(err)
	}

	// Membership lookups are best-effort; an unreadable store renders the
	// neutral labels.
	liked, _ := b.store.Likes().Contains(ctx, cb.From.ID, kind, id)
	saved, _ := b.store.Watchlist().Contains(ctx, cb.From.ID, kind, id)

	text, kb := b.render.ItemDetail(item, liked, saved)
	b.replyItem(ctx, callbackChatID(cb), item, text, kb)
	return ""
}

func (b *Bot) openSeasonList(ctx context.Context, cb *telegram.CallbackQuery, seriesID int64) string {
	item, err := b.meta.GetItem(ctx, model.KindTV, seriesID)
	if err != nil {
		return b.upstreamToast(err)
	}
	text, kb := b.render.SeasonList(item)
	b.editOrSend(ctx, cb, text, kb)
	return ""
}

func (b *Bot) openEpisodeList(ctx context.Context, cb *telegram.CallbackQuery, seriesID int64, seasonNum, page int) string {
	season, err := b.meta.GetSeason(ctx, seriesID, seasonNum)
	if err != nil {
		return b.upstreamToast(err)
	}
	page = nav.ClampPage(page, len(season.Episodes))
	b.sessions.SetCursor(cb.From.ID, page, b.now())

	text, kb := b.render.EpisodeList(season, page)
	b.editOrSend(ctx, cb, text, kb)
	return ""
}

func (b *Bot) openEpisodeDetail(ctx context.Context, cb *telegram.CallbackQuery, tok nav.Token) string {
	ep, err := b.meta.GetEpisode(ctx, tok.ItemID, tok.Season, tok.Episode)
	if err != nil {
		return b.upstreamToast(err)
	}
	// The back control returns to the page the user was on, recalled from
	// the session cursor.
	backPage := b.sessions.Cursor(cb.From.ID)

	text, kb := b.render.EpisodeDetail(ep, backPage)
	b.editOrSend(ctx, cb, text, kb)
	return ""
}

func (b *Bot) paginate(ctx context.Context, cb *telegram.CallbackQuery, tok nav.Token) string {
	season, err := b.meta.GetSeason(ctx, tok.ItemID, tok.Season)
	if err != nil {
		return b.upstreamToast(err)
	}
	// Advance under the session lock: two rapid presses must each move
	// the cursor, never both from the same starting page.
	page := b.sessions.UpdateCursor(cb.From.ID, b.now(), func(current int) int {
		return nav.NextPage(current, tok.Dir, len(season.Episodes))
	})

	text, kb := b.render.EpisodeList(season, page)
	b.editOrSend(ctx, cb, text, kb)
	return ""
}

// toggle flips list membership and reports the state the store returned,
// not the state the button assumed. Concurrent presses stay consistent.
func (b *Bot) toggle(ctx context.Context, userID int64, list store.List, name string, tok nav.Token) string {
	member, err := list.Toggle(ctx, userID, tok.Kind, tok.ItemID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Str("list", name).Msg("toggle failed")
		return "Couldn't update your " + name + ". Please try again."
	}
	if member {
		return "Added to " + name + "."
	}
	return "Removed from " + name + "."
}

func (b *Bot) shareItem(ctx context.Context, cb *telegram.CallbackQuery, tok nav.Token) string {
	item, err := b.meta.GetItem(ctx, tok.Kind, tok.ItemID)
	if err != nil {
		return b.upstreamToast(err)
	}
	kb := telegram.NewKeyboard([]telegram.Button{{
		Text:              "Share " + item.Title,
		SwitchInlineQuery: item.Title,
	}})
	b.reply(ctx, callbackChatID(cb), fmt.Sprintf("Share *%s* with a friend:", item.Title), kb)
	return ""
}

func (b *Bot) openSimilar(ctx context.Context, cb *telegram.CallbackQuery, tok nav.Token) string {
	results, err := b.meta.GetSimilar(ctx, tok.Kind, tok.ItemID)
	if err != nil {
		return b.upstreamToast(err)
	}
	if len(results) == 0 {
		return "No similar titles found."
	}
	text, kb := b.render.Listing("*Similar Titles:*", results)
	b.reply(ctx, callbackChatID(cb), text, kb)
	return ""
}

func (b *Bot) openMenu(ctx context.Context, cb *telegram.CallbackQuery, section string) string {
	chatID := callbackChatID(cb)
	switch section {
	case "main":
		b.editOrSend(ctx, cb, "What would you like to do?", b.render.MainMenu())
		return ""
	case "trending":
		return b.listing(ctx, chatID, "*Trending Today:*", b.meta.GetTrending)
	case "nowplaying":
		return b.listing(ctx, chatID, "*Now Playing:*", b.meta.GetNowPlaying)
	case "upcoming":
		return b.listing(ctx, chatID, "*Coming Soon:*", b.meta.GetUpcoming)
	case "mylist":
		b.sendWatchlist(ctx, chatID, cb.From.ID)
		return ""
	case "settings":
		b.sendSettings(ctx, cb, cb.From.ID)
		return ""
	case "help":
		b.reply(ctx, chatID, helpText, nil)
		return ""
	default:
		return "That button has expired."
	}
}

func (b *Bot) listing(ctx context.Context, chatID int64, header string,
	fetch func(context.Context) ([]model.SearchResult, error)) string {
	results, err := fetch(ctx)
	if err != nil {
		return b.upstreamToast(err)
	}
	if len(results) == 0 {
		return "Nothing to show right now."
	}
	text, kb := b.render.Listing(header, results)
	b.reply(ctx, chatID, text, kb)
	return ""
}

// changeSetting applies one preference change and re-renders the menu.
func (b *Bot) changeSetting(ctx context.Context, cb *telegram.CallbackQuery, field string) string {
	userID := cb.From.ID
	settings := b.loadSettings(ctx, userID)

	switch field {
	case "notifications":
		settings.Notifications = !settings.Notifications
	case "content":
		settings.AdultContent = !settings.AdultContent
	case "language":
		settings.Language = nextLanguage(settings.Language)
	default:
		return "That button has expired."
	}

	if err := b.store.Settings().Upsert(ctx, settings); err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Msg("settings upsert failed")
		return "Couldn't save your settings. Please try again."
	}

	text, kb := b.render.SettingsMenu(settings)
	b.editOrSend(ctx, cb, text, kb)
	return "Settings updated."
}

// loadSettings returns the stored record or the defaults for a first
// contact; it does not persist the defaults.
func (b *Bot) loadSettings(ctx context.Context, userID int64) *model.Settings {
	s, err := b.store.Settings().Get(ctx, userID)
	if err != nil {
		return model.DefaultSettings(userID)
	}
	return s
}

var languageCycle = []string{"en", "es", "fr", "de", "hi"}

func nextLanguage(current string) string {
	for i, l := range languageCycle {
		if l == current {
			return languageCycle[(i+1)%len(languageCycle)]
		}
	}
	return languageCycle[0]
}
