// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/amarnathcjd/balegram"
)

type InputFile = balegram.InputFile

// SendOptions are the optional parameters shared by the send methods.
type SendOptions struct {
	ParseMode           string `json:"parse_mode,omitempty"`
	ReplyToMessageID    int64  `json:"reply_to_message_id,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	// *InlineKeyboardMarkup, *ReplyKeyboardMarkup or *ReplyKeyboardRemove
	ReplyMarkup any `json:"reply_markup,omitempty"`
}

const (
	ActionTyping          = "typing"
	ActionUploadPhoto     = "upload_photo"
	ActionUploadDocument  = "upload_document"
	ActionUploadVideo     = "upload_video"
	ActionRecordVoice     = "record_voice"
	ActionChooseSticker   = "choose_sticker"
	chatActionRepeatEvery = 4 * time.Second
)

type (
	getUpdatesParams struct {
		Offset  int64 `json:"offset"`
		Limit   int   `json:"limit,omitempty"`
		Timeout int   `json:"timeout"`
	}

	sendMessageParams struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
		SendOptions
	}

	editMessageTextParams struct {
		ChatID      int64  `json:"chat_id"`
		MessageID   int64  `json:"message_id"`
		Text        string `json:"text"`
		ParseMode   string `json:"parse_mode,omitempty"`
		ReplyMarkup any    `json:"reply_markup,omitempty"`
	}

	answerCallbackParams struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
		ShowAlert       bool   `json:"show_alert,omitempty"`
	}

	answerPreCheckoutParams struct {
		PreCheckoutQueryID string `json:"pre_checkout_query_id"`
		Ok                 bool   `json:"ok"`
		ErrorMessage       string `json:"error_message,omitempty"`
	}

	chatActionParams struct {
		ChatID int64  `json:"chat_id"`
		Action string `json:"action"`
	}

	// multipart bodies are built from the json tags as well
	sendMediaParams struct {
		ChatID  int64  `json:"chat_id"`
		Caption string `json:"caption,omitempty"`
		SendOptions
	}

	getFileParams struct {
		FileID string `json:"file_id"`
	}
)

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.net.InvokeInto(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates is a single long-poll. The request may take timeout plus the
// configured request timeout before it is abandoned.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+c.config.RequestTimeout)
	defer cancel()

	res, err := c.net.InvokeOnce(ctx, "getUpdates", &getUpdatesParams{
		Offset:  offset,
		Limit:   limit,
		Timeout: int(timeout / time.Second),
	})
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(res, &updates); err != nil {
		return nil, balegram.NewError(balegram.KindUnknown, "getUpdates", errors.Wrap(err, "decoding updates"))
	}
	for i := range updates {
		updates[i].bind(c)
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts ...*SendOptions) (*Message, error) {
	p := &sendMessageParams{ChatID: chatID, Text: text}
	if o := getVariadic(opts, nil); o != nil {
		p.SendOptions = *o
	}
	return c.invokeMessage(ctx, "sendMessage", p)
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts ...*SendOptions) (*Message, error) {
	p := &editMessageTextParams{ChatID: chatID, MessageID: messageID, Text: text}
	if o := getVariadic(opts, nil); o != nil {
		p.ParseMode = o.ParseMode
		p.ReplyMarkup = o.ReplyMarkup
	}
	return c.invokeMessage(ctx, "editMessageText", p)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID, text string, showAlert bool) error {
	return c.net.InvokeInto(ctx, "answerCallbackQuery", &answerCallbackParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       showAlert,
	}, nil)
}

// AnswerPreCheckoutQuery confirms (ok) or rejects a checkout; errMsg is
// shown to the user on rejection.
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errMsg string) error {
	p := &answerPreCheckoutParams{PreCheckoutQueryID: queryID, Ok: ok}
	if !ok {
		p.ErrorMessage = errMsg
	}
	return c.net.InvokeInto(ctx, "answerPreCheckoutQuery", p, nil)
}

func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.net.InvokeInto(ctx, "sendChatAction", &chatActionParams{ChatID: chatID, Action: action}, nil)
}

// KeepChatAction re-sends action every few seconds until the returned stop
// function is called or ctx ends. Failures are logged, not returned.
func (c *Client) KeepChatAction(ctx context.Context, chatID int64, action string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(chatActionRepeatEvery)
		defer t.Stop()
		for {
			if err := c.SendChatAction(ctx, chatID, action); err != nil && ctx.Err() == nil {
				c.Log.Debug("sending chat action %s to %d: %v", action, chatID, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, name string, r io.Reader, caption string, opts ...*SendOptions) (*Message, error) {
	return c.sendMedia(ctx, "sendDocument", "document", chatID, name, r, caption, opts)
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, name string, r io.Reader, caption string, opts ...*SendOptions) (*Message, error) {
	return c.sendMedia(ctx, "sendPhoto", "photo", chatID, name, r, caption, opts)
}

func (c *Client) sendMedia(ctx context.Context, method, field string, chatID int64, name string, r io.Reader, caption string, opts []*SendOptions) (*Message, error) {
	p := &sendMediaParams{ChatID: chatID, Caption: caption}
	if o := getVariadic(opts, nil); o != nil {
		p.SendOptions = *o
	}
	return c.invokeMessage(ctx, method, p, InputFile{Field: field, Name: name, Reader: r})
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.net.InvokeInto(ctx, "getFile", &getFileParams{FileID: fileID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile resolves fileID and streams its content into w.
func (c *Client) DownloadFile(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if f.FilePath == "" {
		return 0, balegram.NewError(balegram.KindNotFound, "getFile", errors.Errorf("file %s has no path", fileID))
	}
	return c.net.Download(ctx, f.FilePath, w)
}

func (c *Client) invokeMessage(ctx context.Context, method string, params any, files ...InputFile) (*Message, error) {
	var m Message
	if err := c.net.InvokeInto(ctx, method, params, &m, files...); err != nil {
		return nil, err
	}
	m.bind(c)
	return &m, nil
}
