// Package telegram is the messaging-gateway client. The bot core depends
// on the Gateway interface only; the resty Client implements it against
// the Telegram Bot API.
package telegram

// Update is one inbound event from the gateway's long poll.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
	InlineQuery   *InlineQuery   `json:"inline_query,omitempty"`
}

// Message is an inbound or referenced chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User identifies the platform account behind an event.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is a button press carrying an opaque data token.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// InlineQuery is a free-text query typed in any chat via the bot mention.
type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

// Button is one inline keyboard button. Exactly one of CallbackData, URL
// or SwitchInlineQuery should be set.
type Button struct {
	Text              string `json:"text"`
	CallbackData      string `json:"callback_data,omitempty"`
	URL               string `json:"url,omitempty"`
	SwitchInlineQuery string `json:"switch_inline_query,omitempty"`
}

// Keyboard is a grid of inline buttons attached to an outbound message.
type Keyboard struct {
	Rows [][]Button `json:"inline_keyboard"`
}

// NewKeyboard builds a keyboard from button rows, dropping empty rows.
func NewKeyboard(rows ...[]Button) *Keyboard {
	kb := &Keyboard{}
	for _, r := range rows {
		if len(r) > 0 {
			kb.Rows = append(kb.Rows, r)
		}
	}
	if len(kb.Rows) == 0 {
		return nil
	}
	return kb
}

// InlineResult is one article answer to an inline query.
type InlineResult struct {
	Type        string              `json:"type"`
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	ThumbURL    string              `json:"thumbnail_url,omitempty"`
	Content     InlineResultContent `json:"input_message_content"`
}

// InlineResultContent is the message sent when an inline result is picked.
type InlineResultContent struct {
	Text      string `json:"message_text"`
	ParseMode string `json:"parse_mode,omitempty"`
}
