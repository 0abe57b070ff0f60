package bale

import (
	"context"
	"sync"
	"time"
)

const ConvDefaultTimeOut = 60 * time.Second

// Conversation is a helper for step-by-step exchanges in one chat, built on
// the waiter table.
type Conversation struct {
	Client  *Client
	ChatID  int64
	timeOut time.Duration

	mu      sync.Mutex
	open    []*Waiter
	lastMsg *Message
}

// NewConversation starts a conversation in chatID. Every Get* call waits
// at most timeout (default 60s).
func (c *Client) NewConversation(chatID int64, timeout ...time.Duration) *Conversation {
	return &Conversation{
		Client:  c,
		ChatID:  chatID,
		timeOut: getVariadic(timeout, ConvDefaultTimeOut),
	}
}

// SetTimeOut sets the timeout for conversation
func (c *Conversation) SetTimeOut(timeout time.Duration) *Conversation {
	c.timeOut = timeout
	return c
}

func (c *Conversation) Respond(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	return c.Client.SendMessage(ctx, c.ChatID, text, opts...)
}

// Reply answers the last message received in the conversation.
func (c *Conversation) Reply(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	options := SendOptions{}
	if o := getVariadic(opts, nil); o != nil {
		options = *o
	}
	c.mu.Lock()
	if options.ReplyToMessageID == 0 && c.lastMsg != nil {
		options.ReplyToMessageID = c.lastMsg.MessageID
	}
	c.mu.Unlock()
	return c.Client.SendMessage(ctx, c.ChatID, text, &options)
}

// Ask sends text and waits for the answer. The waiter is registered before
// sending so a fast answer can't slip past it.
func (c *Conversation) Ask(ctx context.Context, text string, opts ...*SendOptions) (*Message, error) {
	w := c.expect(OnMessage, c.inChat)
	if _, err := c.Respond(ctx, text, opts...); err != nil {
		c.release(w)
		w.Cancel()
		return nil, err
	}
	return c.message(ctx, w)
}

func (c *Conversation) GetResponse(ctx context.Context) (*Message, error) {
	return c.message(ctx, c.expect(OnMessage, c.inChat))
}

func (c *Conversation) GetEdit(ctx context.Context) (*Message, error) {
	return c.message(ctx, c.expect(OnEditedMessage, c.inChat))
}

// GetReply waits for a message in the chat that replies to one of the
// bot's messages.
func (c *Conversation) GetReply(ctx context.Context) (*Message, error) {
	return c.message(ctx, c.expect(OnMessage, func(e *Event) bool {
		return c.inChat(e) && e.Message.ReplyToMessage != nil
	}))
}

func (c *Conversation) GetCallback(ctx context.Context) (*CallbackQuery, error) {
	w := c.expect(OnCallbackQuery, c.inChat)
	ev, err := c.wait(ctx, w)
	if err != nil {
		return nil, err
	}
	return ev.CallbackQuery, nil
}

// WaitEvent waits for any event of kind in the chat that passes check.
func (c *Conversation) WaitEvent(ctx context.Context, kind UpdateKind, check func(e *Event) bool) (*Event, error) {
	return c.wait(ctx, c.expect(kind, func(e *Event) bool {
		return c.inChat(e) && (check == nil || check(e))
	}))
}

// Close cancels every wait still open in the conversation.
func (c *Conversation) Close() {
	c.mu.Lock()
	open := c.open
	c.open = nil
	c.mu.Unlock()
	for _, w := range open {
		w.Cancel()
	}
}

func (c *Conversation) inChat(e *Event) bool {
	return e.ChatID() == c.ChatID
}

func (c *Conversation) expect(kind UpdateKind, check func(e *Event) bool) *Waiter {
	w := c.Client.Expect(kind, check, c.timeOut)
	c.mu.Lock()
	c.open = append(c.open, w)
	c.mu.Unlock()
	return w
}

func (c *Conversation) release(w *Waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, v := range c.open {
		if v == w {
			c.open = append(c.open[:i], c.open[i+1:]...)
			return
		}
	}
}

func (c *Conversation) wait(ctx context.Context, w *Waiter) (*Event, error) {
	defer c.release(w)
	return w.Wait(ctx)
}

func (c *Conversation) message(ctx context.Context, w *Waiter) (*Message, error) {
	ev, err := c.wait(ctx, w)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lastMsg = ev.Message
	c.mu.Unlock()
	return ev.Message, nil
}
