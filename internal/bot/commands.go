package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/telegram"
)

const helpText = `*CineBot Commands*

/start - Welcome and main menu
/trending - What's hot today
/nowplaying - Movies in theaters
/upcoming - Upcoming releases
/mylist - Your saved watchlist
/share - Share your watchlist
/settings - Language, filters, notifications
/feedback <text> - Send us a report
/guide - How to use the bot

Or just type a movie or series name to search.`

const guideText = `*How to use CineBot*

1. Type any movie or series name to search the catalog.
2. Tap a result to see details, ratings, cast and a trailer.
3. For series, browse seasons and episodes page by page.
4. Use Like and Save to build your lists; /mylist shows them.
5. Mention the bot in any chat to search inline and share results.`

// HandleMessage processes a text message: a slash command, or free text
// treated as a catalog search. The admission and session order matches
// callback handling.
func (b *Bot) HandleMessage(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	now := b.now()

	if !b.limiter.Admit(userID, now) {
		b.log.Debug().Err(model.ErrRateLimited).Int64("user_id", userID).Msg("message rejected")
		b.reply(ctx, msg.Chat.ID, "You're sending messages too fast. Give it a minute.", nil)
		return
	}
	b.sessions.Touch(userID, now)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}
	b.search(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *telegram.Message, text string) {
	cmd, args, _ := strings.Cut(text, " ")
	// strip the bot mention suffix used in group chats
	cmd, _, _ = strings.Cut(cmd, "@")
	chatID := msg.Chat.ID

	switch cmd {
	case "/start":
		name := msg.From.FirstName
		if name == "" {
			name = "there"
		}
		b.reply(ctx, chatID, "Hi "+name+"! I can help you find movies and series. "+
			"Type a title to search, or pick something below.", b.render.MainMenu())

	case "/help":
		b.reply(ctx, chatID, helpText, nil)

	case "/guide":
		b.reply(ctx, chatID, guideText, nil)

	case "/trending":
		b.listingReply(ctx, chatID, "*Trending Today:*", b.meta.GetTrending)

	case "/nowplaying":
		b.listingReply(ctx, chatID, "*Now Playing:*", b.meta.GetNowPlaying)

	case "/upcoming":
		b.listingReply(ctx, chatID, "*Coming Soon:*", b.meta.GetUpcoming)

	case "/mylist":
		b.sendWatchlist(ctx, chatID, msg.From.ID)

	case "/share":
		b.sendShare(ctx, chatID, msg.From.ID)

	case "/settings":
		b.sendSettingsTo(ctx, chatID, msg.From.ID)

	case "/feedback":
		b.takeFeedback(ctx, chatID, msg.From.ID, strings.TrimSpace(args))

	default:
		b.reply(ctx, chatID, "I don't know that command. Try /help.", nil)
	}
}

func (b *Bot) listingReply(ctx context.Context, chatID int64, header string,
	fetch func(context.Context) ([]model.SearchResult, error)) {
	if toast := b.listing(ctx, chatID, header, fetch); toast != "" {
		b.reply(ctx, chatID, toast, nil)
	}
}

// search runs a free-text catalog query and renders the result list.
func (b *Bot) search(ctx context.Context, chatID int64, query string) {
	results, err := b.meta.SearchMulti(ctx, query)
	if err != nil {
		b.reply(ctx, chatID, b.upstreamToast(err), nil)
		return
	}
	if len(results) == 0 {
		b.reply(ctx, chatID, "No results for \""+query+"\". Try a different title.", nil)
		return
	}
	text, kb := b.render.Listing("*Results for \""+query+"\":*", results)
	b.reply(ctx, chatID, text, kb)
}

// sendWatchlist resolves the saved entries to items and renders the list.
// Entries the catalog no longer knows are skipped.
func (b *Bot) sendWatchlist(ctx context.Context, chatID, userID int64) {
	items, err := b.watchlistItems(ctx, userID)
	if err != nil {
		b.reply(ctx, chatID, "Couldn't load your watchlist. Please try again.", nil)
		return
	}
	text, kb := b.render.Watchlist(items)
	b.reply(ctx, chatID, text, kb)
}

func (b *Bot) sendShare(ctx context.Context, chatID, userID int64) {
	items, err := b.watchlistItems(ctx, userID)
	if err != nil {
		b.reply(ctx, chatID, "Couldn't load your watchlist. Please try again.", nil)
		return
	}
	if len(items) == 0 {
		b.reply(ctx, chatID, "Your watchlist is empty. Save a few titles first.", nil)
		return
	}
	text, kb := b.render.ShareWatchlist(userID, items)
	b.reply(ctx, chatID, text, kb)
}

func (b *Bot) watchlistItems(ctx context.Context, userID int64) ([]*model.Item, error) {
	entries, err := b.store.Watchlist().Entries(ctx, userID)
	if err != nil {
		return nil, err
	}
	var items []*model.Item
	for _, e := range entries {
		item, err := b.meta.GetItem(ctx, e.Kind, e.ItemID)
		if err != nil {
			b.log.Debug().Err(err).Int64("item_id", e.ItemID).Msg("watchlist item unresolved")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *Bot) sendSettings(ctx context.Context, cb *telegram.CallbackQuery, userID int64) {
	settings := b.loadSettings(ctx, userID)
	text, kb := b.render.SettingsMenu(settings)
	b.editOrSend(ctx, cb, text, kb)
}

func (b *Bot) sendSettingsTo(ctx context.Context, chatID, userID int64) {
	settings := b.loadSettings(ctx, userID)
	text, kb := b.render.SettingsMenu(settings)
	b.reply(ctx, chatID, text, kb)
}

// takeFeedback stores an anonymized report.
func (b *Bot) takeFeedback(ctx context.Context, chatID, userID int64, body string) {
	if body == "" {
		b.reply(ctx, chatID, "Tell me what's on your mind: /feedback <your message>", nil)
		return
	}
	f := &model.Feedback{
		UserHash: userHash(userID),
		Body:     body,
		Category: "general",
	}
	if _, err := b.store.Feedback().Create(ctx, f); err != nil {
		b.log.Error().Err(err).Msg("feedback store failed")
		b.reply(ctx, chatID, "Couldn't save your feedback right now. Please try again.", nil)
		return
	}
	b.reply(ctx, chatID, "Thanks! Your feedback was recorded.", nil)
}

// handleInline answers an inline query with catalog articles. An empty
// query shows trending; the watchlist_<id> form shares a user's list.
func (b *Bot) handleInline(ctx context.Context, q *telegram.InlineQuery) {
	query := strings.TrimSpace(q.Query)

	var (
		results []model.SearchResult
		err     error
	)
	switch {
	case strings.HasPrefix(query, "watchlist_"):
		results, err = b.inlineWatchlist(ctx, strings.TrimPrefix(query, "watchlist_"))
	case query == "":
		results, err = b.meta.GetTrending(ctx)
	default:
		results, err = b.meta.SearchMulti(ctx, query)
	}
	if err != nil {
		b.log.Warn().Err(err).Str("query", query).Msg("inline query failed")
		results = nil
	}

	if err := b.gateway.AnswerInlineQuery(ctx, q.ID, b.render.InlineResults(results)); err != nil {
		b.log.Warn().Err(err).Str("query_id", q.ID).Msg("answer inline failed")
	}
}

func (b *Bot) inlineWatchlist(ctx context.Context, rawID string) ([]model.SearchResult, error) {
	ownerID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, nil
	}
	items, err := b.watchlistItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var results []model.SearchResult
	for _, it := range items {
		year := ""
		if len(it.ReleaseDate) >= 4 {
			year = it.ReleaseDate[:4]
		}
		results = append(results, model.SearchResult{
			ID:        it.ID,
			Kind:      it.Kind,
			Title:     it.Title,
			Year:      year,
			Rating:    it.Rating,
			Overview:  it.Overview,
			PosterURL: it.PosterURL,
		})
	}
	return results, nil
}
