// Copyright (c) 2024 RoseLoverX

package bale

type (
	User struct {
		ID           int64  `json:"id"`
		IsBot        bool   `json:"is_bot,omitempty"`
		FirstName    string `json:"first_name,omitempty"`
		LastName     string `json:"last_name,omitempty"`
		Username     string `json:"username,omitempty"`
		LanguageCode string `json:"language_code,omitempty"`
	}

	Chat struct {
		ID        int64  `json:"id"`
		Type      string `json:"type,omitempty"`
		Title     string `json:"title,omitempty"`
		Username  string `json:"username,omitempty"`
		FirstName string `json:"first_name,omitempty"`
		LastName  string `json:"last_name,omitempty"`
	}

	MessageEntity struct {
		Type   string `json:"type"`
		Offset int    `json:"offset"`
		Length int    `json:"length"`
		URL    string `json:"url,omitempty"`
		User   *User  `json:"user,omitempty"`
	}

	PhotoSize struct {
		FileID       string `json:"file_id"`
		FileUniqueID string `json:"file_unique_id,omitempty"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		FileSize     int64  `json:"file_size,omitempty"`
	}

	Document struct {
		FileID       string `json:"file_id"`
		FileUniqueID string `json:"file_unique_id,omitempty"`
		FileName     string `json:"file_name,omitempty"`
		MimeType     string `json:"mime_type,omitempty"`
		FileSize     int64  `json:"file_size,omitempty"`
	}

	Contact struct {
		PhoneNumber string `json:"phone_number"`
		FirstName   string `json:"first_name,omitempty"`
		LastName    string `json:"last_name,omitempty"`
		UserID      int64  `json:"user_id,omitempty"`
	}

	Location struct {
		Longitude float64 `json:"longitude"`
		Latitude  float64 `json:"latitude"`
	}

	SuccessfulPayment struct {
		Currency                string `json:"currency"`
		TotalAmount             int64  `json:"total_amount"`
		InvoicePayload          string `json:"invoice_payload"`
		TelegramPaymentChargeID string `json:"telegram_payment_charge_id,omitempty"`
		ProviderPaymentChargeID string `json:"provider_payment_charge_id,omitempty"`
	}

	Message struct {
		MessageID         int64                 `json:"message_id"`
		From              *User                 `json:"from,omitempty"`
		Date              int64                 `json:"date,omitempty"`
		Chat              Chat                  `json:"chat"`
		ForwardFrom       *User                 `json:"forward_from,omitempty"`
		ReplyToMessage    *Message              `json:"reply_to_message,omitempty"`
		EditDate          int64                 `json:"edit_date,omitempty"`
		Text              string                `json:"text,omitempty"`
		Entities          []MessageEntity       `json:"entities,omitempty"`
		Caption           string                `json:"caption,omitempty"`
		Photo             []PhotoSize           `json:"photo,omitempty"`
		Document          *Document             `json:"document,omitempty"`
		Contact           *Contact              `json:"contact,omitempty"`
		Location          *Location             `json:"location,omitempty"`
		NewChatMembers    []User                `json:"new_chat_members,omitempty"`
		LeftChatMember    *User                 `json:"left_chat_member,omitempty"`
		SuccessfulPayment *SuccessfulPayment    `json:"successful_payment,omitempty"`
		ReplyMarkup       *InlineKeyboardMarkup `json:"reply_markup,omitempty"`

		client *Client
	}

	CallbackQuery struct {
		ID              string   `json:"id"`
		From            User     `json:"from"`
		Message         *Message `json:"message,omitempty"`
		InlineMessageID string   `json:"inline_message_id,omitempty"`
		ChatInstance    string   `json:"chat_instance,omitempty"`
		Data            string   `json:"data,omitempty"`

		client *Client
	}

	PreCheckoutQuery struct {
		ID             string `json:"id"`
		From           User   `json:"from"`
		Currency       string `json:"currency"`
		TotalAmount    int64  `json:"total_amount"`
		InvoicePayload string `json:"invoice_payload"`

		client *Client
	}

	// Update is one element of a getUpdates result. At most one payload
	// field is set; unknown payloads decode to an Update with none set.
	Update struct {
		UpdateID         int64             `json:"update_id"`
		Message          *Message          `json:"message,omitempty"`
		EditedMessage    *Message          `json:"edited_message,omitempty"`
		CallbackQuery    *CallbackQuery    `json:"callback_query,omitempty"`
		PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query,omitempty"`
	}

	File struct {
		FileID       string `json:"file_id"`
		FileUniqueID string `json:"file_unique_id,omitempty"`
		FileSize     int64  `json:"file_size,omitempty"`
		FilePath     string `json:"file_path,omitempty"`
	}

	InlineKeyboardButton struct {
		Text         string `json:"text"`
		CallbackData string `json:"callback_data,omitempty"`
		URL          string `json:"url,omitempty"`
	}

	InlineKeyboardMarkup struct {
		InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
	}

	KeyboardButton struct {
		Text            string `json:"text"`
		RequestContact  bool   `json:"request_contact,omitempty"`
		RequestLocation bool   `json:"request_location,omitempty"`
	}

	ReplyKeyboardMarkup struct {
		Keyboard        [][]KeyboardButton `json:"keyboard"`
		ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
		OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
		Selective       bool               `json:"selective,omitempty"`
	}

	ReplyKeyboardRemove struct {
		RemoveKeyboard bool `json:"remove_keyboard"`
		Selective      bool `json:"selective,omitempty"`
	}
)

// ChatID returns the id of the chat the message was posted in.
func (m *Message) ChatID() int64 {
	return m.Chat.ID
}

// SenderID is 0 for messages without a sender (channel posts).
func (m *Message) SenderID() int64 {
	if m.From == nil {
		return 0
	}
	return m.From.ID
}

func (m *Message) IsPrivate() bool {
	return m.Chat.Type == "private"
}

func (m *Message) IsGroup() bool {
	return m.Chat.Type == "group" || m.Chat.Type == "supergroup"
}

// Client returns the client that decoded m, or nil for hand-built values.
func (m *Message) Client() *Client { return m.client }

func (q *CallbackQuery) Client() *Client { return q.client }

func (q *PreCheckoutQuery) Client() *Client { return q.client }

// ChatID is the chat of the message the button was attached to, falling
// back to the sender for inline-message callbacks.
func (q *CallbackQuery) ChatID() int64 {
	if q.Message != nil {
		return q.Message.Chat.ID
	}
	return q.From.ID
}

func (m *Message) bind(c *Client) {
	for cur := m; cur != nil; cur = cur.ReplyToMessage {
		cur.client = c
	}
}

func (u *Update) bind(c *Client) {
	if u.Message != nil {
		u.Message.bind(c)
	}
	if u.EditedMessage != nil {
		u.EditedMessage.bind(c)
	}
	if u.CallbackQuery != nil {
		u.CallbackQuery.client = c
		if u.CallbackQuery.Message != nil {
			u.CallbackQuery.Message.bind(c)
		}
	}
	if u.PreCheckoutQuery != nil {
		u.PreCheckoutQuery.client = c
	}
}
