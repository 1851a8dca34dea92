// Package bot is the conversational core: it turns inbound updates into
// metadata lookups, renders the next screen and replies through the
// gateway. All side effects for a callback run in a fixed order: rate
// limit, session touch, handler.
package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/ratelimit"
	"github.com/cinephiles/cinebot/internal/render"
	"github.com/cinephiles/cinebot/internal/session"
	"github.com/cinephiles/cinebot/internal/store"
	"github.com/cinephiles/cinebot/internal/telegram"
)

// Metadata is the catalog surface the bot reads from. The tmdb client
// implements it; tests substitute a fake.
type Metadata interface {
	GetItem(ctx context.Context, kind model.MediaKind, id int64) (*model.Item, error)
	GetSeason(ctx context.Context, seriesID int64, season int) (*model.Season, error)
	GetEpisode(ctx context.Context, seriesID int64, season, episode int) (*model.Episode, error)
	SearchMulti(ctx context.Context, query string) ([]model.SearchResult, error)
	GetTrending(ctx context.Context) ([]model.SearchResult, error)
	GetUpcoming(ctx context.Context) ([]model.SearchResult, error)
	GetNowPlaying(ctx context.Context) ([]model.SearchResult, error)
	GetSimilar(ctx context.Context, kind model.MediaKind, id int64) ([]model.SearchResult, error)
}

// Bot wires the gateway, catalog, persistence and per-user state together.
type Bot struct {
	gateway  telegram.Gateway
	meta     Metadata
	store    store.Store
	sessions *session.Store
	limiter  *ratelimit.Limiter
	render   *render.Renderer
	log      zerolog.Logger

	now func() time.Time
}

// New creates a Bot. All collaborators are required.
func New(gw telegram.Gateway, meta Metadata, st store.Store, sessions *session.Store,
	limiter *ratelimit.Limiter, r *render.Renderer, log zerolog.Logger) *Bot {
	return &Bot{
		gateway:  gw,
		meta:     meta,
		store:    st,
		sessions: sessions,
		limiter:  limiter,
		render:   r,
		log:      log.With().Str("component", "bot").Logger(),
		now:      time.Now,
	}
}

// HandleUpdate routes one inbound update. It never returns an error:
// every failure is handled where it occurs and answered to the user.
func (b *Bot) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.HandleCallback(ctx, upd.CallbackQuery)
	case upd.InlineQuery != nil:
		b.handleInline(ctx, upd.InlineQuery)
	case upd.Message != nil && upd.Message.From != nil:
		b.HandleMessage(ctx, upd.Message)
	}
}

// reply sends a text message, logging delivery failures.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb *telegram.Keyboard) {
	if err := b.gateway.SendText(ctx, chatID, text, kb); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

// replyItem sends the item screen as a photo when a poster exists,
// falling back to a plain text message on delivery failure.
func (b *Bot) replyItem(ctx context.Context, chatID int64, item *model.Item, text string, kb *telegram.Keyboard) {
	if item.PosterURL != "" {
		err := b.gateway.SendPhoto(ctx, chatID, item.PosterURL, text, kb)
		if err == nil {
			return
		}
		if !errors.Is(err, model.ErrDelivery) {
			b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("photo send failed")
		}
	}
	b.reply(ctx, chatID, text, kb)
}

// editOrSend edits the originating message in place when there is one,
// otherwise sends a fresh message. Edit failures (e.g. the original was
// a photo) fall back to a send.
func (b *Bot) editOrSend(ctx context.Context, cb *telegram.CallbackQuery, text string, kb *telegram.Keyboard) {
	chatID := callbackChatID(cb)
	if cb.Message != nil {
		if err := b.gateway.EditText(ctx, chatID, cb.Message.MessageID, text, kb); err == nil {
			return
		}
	}
	b.reply(ctx, chatID, text, kb)
}

func callbackChatID(cb *telegram.CallbackQuery) int64 {
	if cb.Message != nil {
		return cb.Message.Chat.ID
	}
	return cb.From.ID
}

// userHash anonymizes a platform user id for stored feedback.
func userHash(userID int64) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(userID, 10)))
	return hex.EncodeToString(sum[:])
}

// upstreamToast maps catalog errors to user-facing toasts. Timeouts are
// shown like missing data but logged on their own so slow upstream
// periods are visible to operators.
func (b *Bot) upstreamToast(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "Sorry, I couldn't find that title."
	case errors.Is(err, model.ErrUpstreamTimeout):
		b.log.Warn().Err(err).Msg("catalog call timed out")
		return "The catalog is slow right now. Please try again."
	default:
		b.log.Error().Err(err).Msg("catalog call failed")
		return "Something went wrong. Please try again."
	}
}
