// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type (
	EventHandler       func(ctx context.Context, e *Event) error
	MessageHandler     func(ctx context.Context, m *Message) error
	CallbackHandler    func(ctx context.Context, q *CallbackQuery) error
	PreCheckoutHandler func(ctx context.Context, q *PreCheckoutQuery) error
	// RawHandler also receives the undecoded update the event came from.
	RawHandler func(ctx context.Context, e *Event, u *Update) error
	// CommandHandler gets the whitespace-split tokens after the command.
	CommandHandler func(ctx context.Context, m *Message, args []string) error

	// Filter decides whether a handler sees an event. A panicking filter
	// counts as a rejection.
	Filter func(e *Event) bool
)

type invokeFunc func(ctx context.Context, e *Event, args []string) error

// Handle identifies a registration so it can be removed later.
type Handle interface {
	Kind() UpdateKind
	// Command is the normalized command name, empty for plain handlers.
	Command() string
	ID() uint64
}

type handle struct {
	id            uint64
	kind          UpdateKind
	command       string
	caseSensitive bool
	filters       []Filter
	fn            invokeFunc
}

func (h *handle) Kind() UpdateKind { return h.kind }
func (h *handle) Command() string  { return h.command }
func (h *handle) ID() uint64       { return h.id }

type registry struct {
	mu       sync.RWMutex
	nextID   uint64
	commands []*handle
	byKind   map[UpdateKind][]*handle
}

func newRegistry() *registry {
	return &registry{byKind: make(map[UpdateKind][]*handle)}
}

func (r *registry) add(h *handle) *handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	h.id = r.nextID
	if h.command != "" {
		r.commands = append(r.commands, h)
	} else {
		r.byKind[h.kind] = append(r.byKind[h.kind], h)
	}
	return h
}

func (r *registry) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out, ok := without(r.commands, id); ok {
		r.commands = out
		return true
	}
	for kind, list := range r.byKind {
		if out, ok := without(list, id); ok {
			r.byKind[kind] = out
			return true
		}
	}
	return false
}

func without(list []*handle, id uint64) ([]*handle, bool) {
	for i, h := range list {
		if h.id == id {
			out := make([]*handle, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

func (r *registry) removeAll() {
	r.mu.Lock()
	r.commands = nil
	r.byKind = make(map[UpdateKind][]*handle)
	r.mu.Unlock()
}

// handlersFor returns the plain handlers of kind in registration order. The
// slice is never mutated in place, so it is safe to range over unlocked.
func (r *registry) handlersFor(kind UpdateKind) []*handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKind[kind]
}

// matchCommand finds the first command whose name is the first token of
// text and returns the remaining tokens as arguments.
func (r *registry) matchCommand(text, botUsername string) (*handle, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.commands {
		if commandMatches(fields[0], h.command, h.caseSensitive, botUsername) {
			return h, fields[1:], true
		}
	}
	return nil, nil, false
}

// commandMatches reports whether token invokes name ("/start"). The bare
// form ("start") and the addressed form ("/start@bot") are accepted too; an
// address naming another bot is not.
func commandMatches(token, name string, caseSensitive bool, botUsername string) bool {
	if strings.HasPrefix(token, "/") {
		if at := strings.IndexByte(token, '@'); at > 0 {
			mention := token[at+1:]
			if botUsername != "" && !strings.EqualFold(mention, botUsername) {
				return false
			}
			token = token[:at]
		}
	}
	eq := strings.EqualFold
	if caseSensitive {
		eq = func(a, b string) bool { return a == b }
	}
	return eq(token, name) || eq(token, strings.TrimPrefix(name, "/"))
}

// normalizeCommand prefixes name with exactly one "/".
func normalizeCommand(name string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

// On registers handler for kind. Accepted handler types are EventHandler,
// RawHandler and the payload-specific handler of kind, or the plain func
// forms of those. Kind may also be "command:<name>" (or "cmd:<name>") to
// register handler as a command.
//
//	client.On(bale.OnMessage, func(ctx context.Context, m *bale.Message) error { ... })
//	client.On("command:start", func(ctx context.Context, m *bale.Message) error { ... })
func (c *Client) On(kind UpdateKind, handler any, filters ...Filter) Handle {
	h, err := c.newHandle(kind, handler, filters)
	if err != nil {
		c.Log.Error("registering %s handler: %v", kind, err)
		return nil
	}
	return c.handlers.add(h)
}

func (c *Client) newHandle(kind UpdateKind, handler any, filters []Filter) (*handle, error) {
	if v := reflect.ValueOf(handler); !v.IsValid() || (v.Kind() == reflect.Func && v.IsNil()) {
		return nil, errors.Wrap(ErrInvalidHandler, "nil handler")
	}
	for _, prefix := range []string{"command:", "cmd:"} {
		if name, ok := strings.CutPrefix(string(kind), prefix); ok {
			fn, err := commandInvoker(handler)
			if err != nil {
				return nil, err
			}
			if normalizeCommand(name) == "/" {
				return nil, errors.Wrap(ErrInvalidHandler, "empty command name")
			}
			return &handle{kind: OnMessage, command: normalizeCommand(name), filters: filters, fn: fn}, nil
		}
	}
	if !kind.valid() {
		return nil, errors.Wrapf(ErrInvalidHandler, "unknown update kind %q", kind)
	}
	fn, err := kindInvoker(kind, handler)
	if err != nil {
		return nil, err
	}
	return &handle{kind: kind, filters: filters, fn: fn}, nil
}

func kindInvoker(kind UpdateKind, handler any) (invokeFunc, error) {
	switch fn := handler.(type) {
	case EventHandler:
		return eventInvoker(fn), nil
	case func(context.Context, *Event) error:
		return eventInvoker(fn), nil
	case RawHandler:
		return rawInvoker(fn), nil
	case func(context.Context, *Event, *Update) error:
		return rawInvoker(fn), nil
	}

	switch kind {
	case OnMessage, OnEditedMessage, OnMemberJoined, OnMemberLeft:
		switch fn := handler.(type) {
		case MessageHandler:
			return messageInvoker(fn), nil
		case func(context.Context, *Message) error:
			return messageInvoker(fn), nil
		}
	case OnCallbackQuery:
		switch fn := handler.(type) {
		case CallbackHandler:
			return callbackInvoker(fn), nil
		case func(context.Context, *CallbackQuery) error:
			return callbackInvoker(fn), nil
		}
	case OnPreCheckoutQuery:
		switch fn := handler.(type) {
		case PreCheckoutHandler:
			return preCheckoutInvoker(fn), nil
		case func(context.Context, *PreCheckoutQuery) error:
			return preCheckoutInvoker(fn), nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidHandler, "%T cannot handle %s", handler, kind)
}

func commandInvoker(handler any) (invokeFunc, error) {
	switch fn := handler.(type) {
	case CommandHandler:
		return commandArgsInvoker(fn), nil
	case func(context.Context, *Message, []string) error:
		return commandArgsInvoker(fn), nil
	case MessageHandler:
		return messageInvoker(fn), nil
	case func(context.Context, *Message) error:
		return messageInvoker(fn), nil
	case EventHandler:
		return eventInvoker(fn), nil
	case func(context.Context, *Event) error:
		return eventInvoker(fn), nil
	}
	return nil, errors.Wrapf(ErrInvalidHandler, "%T cannot handle a command", handler)
}

func eventInvoker(fn EventHandler) invokeFunc {
	return func(ctx context.Context, e *Event, _ []string) error { return fn(ctx, e) }
}

func rawInvoker(fn RawHandler) invokeFunc {
	return func(ctx context.Context, e *Event, _ []string) error { return fn(ctx, e, e.Update) }
}

func messageInvoker(fn MessageHandler) invokeFunc {
	return func(ctx context.Context, e *Event, _ []string) error { return fn(ctx, e.Message) }
}

func callbackInvoker(fn CallbackHandler) invokeFunc {
	return func(ctx context.Context, e *Event, _ []string) error { return fn(ctx, e.CallbackQuery) }
}

func preCheckoutInvoker(fn PreCheckoutHandler) invokeFunc {
	return func(ctx context.Context, e *Event, _ []string) error { return fn(ctx, e.PreCheckoutQuery) }
}

func commandArgsInvoker(fn CommandHandler) invokeFunc {
	return func(ctx context.Context, e *Event, args []string) error { return fn(ctx, e.Message, args) }
}

// AddCommandHandler registers fn for /name. Matching ignores case unless
// caseSensitive is set. A message whose first token names a command is
// consumed by the first such command even if its filters reject it.
func (c *Client) AddCommandHandler(name string, fn CommandHandler, caseSensitive bool, filters ...Filter) Handle {
	if normalizeCommand(name) == "/" || fn == nil {
		c.Log.Error("registering command %q: %v", name, ErrInvalidHandler)
		return nil
	}
	return c.handlers.add(&handle{
		kind:          OnMessage,
		command:       normalizeCommand(name),
		caseSensitive: caseSensitive,
		filters:       filters,
		fn:            commandArgsInvoker(fn),
	})
}

// OnCommand is AddCommandHandler for handlers that don't need the arguments.
func (c *Client) OnCommand(name string, fn MessageHandler, filters ...Filter) Handle {
	if fn == nil {
		return c.AddCommandHandler(name, nil, false, filters...)
	}
	return c.AddCommandHandler(name, func(ctx context.Context, m *Message, _ []string) error {
		return fn(ctx, m)
	}, false, filters...)
}

func (c *Client) AddMessageHandler(fn MessageHandler, filters ...Filter) Handle {
	return c.On(OnMessage, fn, filters...)
}

func (c *Client) AddEditHandler(fn MessageHandler, filters ...Filter) Handle {
	return c.On(OnEditedMessage, fn, filters...)
}

func (c *Client) AddCallbackHandler(fn CallbackHandler, filters ...Filter) Handle {
	return c.On(OnCallbackQuery, fn, filters...)
}

func (c *Client) AddPreCheckoutHandler(fn PreCheckoutHandler, filters ...Filter) Handle {
	return c.On(OnPreCheckoutQuery, fn, filters...)
}

func (c *Client) AddMemberJoinedHandler(fn MessageHandler, filters ...Filter) Handle {
	return c.On(OnMemberJoined, fn, filters...)
}

func (c *Client) AddMemberLeftHandler(fn MessageHandler, filters ...Filter) Handle {
	return c.On(OnMemberLeft, fn, filters...)
}

// AddRawHandler registers fn for kind with access to the raw update.
func (c *Client) AddRawHandler(kind UpdateKind, fn RawHandler, filters ...Filter) Handle {
	return c.On(kind, fn, filters...)
}

// RemoveHandle unregisters h; removing twice is an error.
func (c *Client) RemoveHandle(h Handle) error {
	if h == nil {
		return errors.Wrap(ErrInvalidHandler, "nil handle")
	}
	if !c.handlers.remove(h.ID()) {
		return errors.Errorf("handle %d is not registered", h.ID())
	}
	return nil
}

func (c *Client) RemoveAllHandlers() {
	c.handlers.removeAll()
}
