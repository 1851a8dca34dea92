package telegram

import "context"

// Gateway is the outbound surface the bot core calls. Implementations
// must report delivery failures as model.ErrDelivery so callers can fall
// back (e.g. photo send to text send) without inspecting transport detail.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, kb *Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb *Keyboard) error
	EditText(ctx context.Context, chatID, messageID int64, text string, kb *Keyboard) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	AnswerInlineQuery(ctx context.Context, queryID string, results []InlineResult) error
}
