// Copyright (c) 2024 RoseLoverX

package bale

import "context"

// Reply sends text to the chat of m as a reply to m.
func (m *Message) Reply(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	if m.client == nil {
		return nil, ErrNoClient
	}
	options := SendOptions{}
	if o := getVariadic(opts, nil); o != nil {
		options = *o
	}
	if options.ReplyToMessageID == 0 {
		options.ReplyToMessageID = m.MessageID
	}
	return m.client.SendMessage(ctx, m.Chat.ID, text, &options)
}

// Respond sends text to the chat of m without quoting it.
func (m *Message) Respond(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	if m.client == nil {
		return nil, ErrNoClient
	}
	return m.client.SendMessage(ctx, m.Chat.ID, text, opts...)
}

func (m *Message) Edit(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	if m.client == nil {
		return nil, ErrNoClient
	}
	return m.client.EditMessageText(ctx, m.Chat.ID, m.MessageID, text, opts...)
}

// Answer acknowledges the callback, optionally showing text (as an alert
// when showAlert is set).
func (q *CallbackQuery) Answer(ctx context.Context, text string, showAlert ...bool) error {
	if q.client == nil {
		return ErrNoClient
	}
	return q.client.AnswerCallbackQuery(ctx, q.ID, text, getVariadic(showAlert, false))
}

// Respond sends text to the chat the callback came from.
func (q *CallbackQuery) Respond(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	if q.client == nil {
		return nil, ErrNoClient
	}
	return q.client.SendMessage(ctx, q.ChatID(), text, opts...)
}

// Edit replaces the text of the message carrying the button.
func (q *CallbackQuery) Edit(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	if q.Message == nil {
		return nil, ErrNoClient
	}
	return q.Message.Edit(ctx, text, opts...)
}

// Answer accepts the checkout when ok, or rejects it with errMsg.
func (q *PreCheckoutQuery) Answer(ctx context.Context, ok bool, errMsg ...string) error {
	if q.client == nil {
		return ErrNoClient
	}
	return q.client.AnswerPreCheckoutQuery(ctx, q.ID, ok, getVariadic(errMsg, ""))
}
