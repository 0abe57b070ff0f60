package bale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	c, err := NewClient(ClientConfig{Token: testToken, BaseURL: "http://127.0.0.1:1", LogLevel: LogDisable})
	require.NoError(t, err)
	return c
}

func TestCommandMatches(t *testing.T) {
	tests := []struct {
		token         string
		name          string
		caseSensitive bool
		want          bool
	}{
		{"/start", "/start", false, true},
		{"start", "/start", false, true},
		{"/START", "/start", false, true},
		{"/START", "/start", true, false},
		{"/Start", "/Start", true, true},
		{"/start@b", "/start", false, true},
		{"/start@B", "/start", false, true},
		{"/start@other_bot", "/start", false, false},
		{"/started", "/start", false, false},
		{"/sta", "/start", false, false},
		{"//start", "/start", false, false},
	}
	for _, tt := range tests {
		got := commandMatches(tt.token, tt.name, tt.caseSensitive, "b")
		assert.Equal(t, tt.want, got, "%q vs %q (case sensitive %v)", tt.token, tt.name, tt.caseSensitive)
	}
}

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "/start", normalizeCommand("start"))
	assert.Equal(t, "/start", normalizeCommand("/start"))
	assert.Equal(t, "/start", normalizeCommand(" start "))
	assert.Equal(t, "/start", normalizeCommand("//start"))
}

func TestRegistry_DoubleSlashRegistrationMatchesBareToken(t *testing.T) {
	r := newRegistry()
	h := r.add(&handle{kind: OnMessage, command: normalizeCommand("//start")})

	for _, text := range []string{"start", "/start", "/START now"} {
		got, _, ok := r.matchCommand(text, "")
		require.True(t, ok, text)
		assert.Same(t, h, got)
	}
}

func TestRegistry_MatchCommand(t *testing.T) {
	r := newRegistry()
	first := r.add(&handle{kind: OnMessage, command: "/help"})
	r.add(&handle{kind: OnMessage, command: "/help"})

	h, args, ok := r.matchCommand("  /help   me\tplease ", "")
	require.True(t, ok)
	assert.Same(t, first, h)
	assert.Equal(t, []string{"me", "please"}, args)

	_, args, ok = r.matchCommand("help", "")
	require.True(t, ok)
	assert.Empty(t, args)

	_, _, ok = r.matchCommand("", "")
	assert.False(t, ok)
	_, _, ok = r.matchCommand("say /help", "")
	assert.False(t, ok)
}

func TestRegistry_Remove(t *testing.T) {
	r := newRegistry()
	a := r.add(&handle{kind: OnMessage})
	b := r.add(&handle{kind: OnMessage})
	cmd := r.add(&handle{kind: OnMessage, command: "/x"})

	before := r.handlersFor(OnMessage)
	require.True(t, r.remove(a.id))
	assert.False(t, r.remove(a.id))
	assert.Equal(t, []*handle{b}, r.handlersFor(OnMessage))
	assert.Len(t, before, 2, "snapshots taken earlier are not modified")

	require.True(t, r.remove(cmd.id))
	_, _, ok := r.matchCommand("/x", "")
	assert.False(t, ok)

	r.removeAll()
	assert.Empty(t, r.handlersFor(OnMessage))
}

func TestClient_OnAcceptsHandlerForms(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	var got []string
	handles := []Handle{
		c.On(OnMessage, func(ctx context.Context, m *Message) error { got = append(got, "message"); return nil }),
		c.On(OnMessage, EventHandler(func(ctx context.Context, e *Event) error { got = append(got, "event"); return nil })),
		c.On(OnMessage, func(ctx context.Context, e *Event, u *Update) error { got = append(got, "raw"); return nil }),
		c.On(OnCallbackQuery, func(ctx context.Context, q *CallbackQuery) error { got = append(got, "callback"); return nil }),
		c.On(OnPreCheckoutQuery, PreCheckoutHandler(func(ctx context.Context, q *PreCheckoutQuery) error { got = append(got, "checkout"); return nil })),
		c.On("command:start", func(ctx context.Context, m *Message, args []string) error { got = append(got, "command"); return nil }),
	}
	for i, h := range handles {
		require.NotNil(t, h, "handler %d", i)
	}
	assert.Equal(t, "/start", handles[5].Command())
	assert.Equal(t, OnMessage, handles[5].Kind())

	ev := &Event{Kind: OnMessage, Message: &Message{}, Update: &Update{}}
	for _, h := range c.handlers.handlersFor(OnMessage) {
		require.NoError(t, h.fn(ctx, ev, nil))
	}
	assert.Equal(t, []string{"message", "event", "raw"}, got)
}

func TestClient_OnRejectsMismatchedHandlers(t *testing.T) {
	c := newTestClient(t)

	assert.Nil(t, c.On(OnCallbackQuery, func(ctx context.Context, m *Message) error { return nil }))
	assert.Nil(t, c.On(OnMessage, func(m *Message) {}))
	assert.Nil(t, c.On("photo", func(ctx context.Context, e *Event) error { return nil }))
	assert.Nil(t, c.On(OnMessage, nil))
	assert.Nil(t, c.On(OnMessage, MessageHandler(nil)))
	assert.Nil(t, c.On("cmd:", func(ctx context.Context, m *Message) error { return nil }))
	assert.Nil(t, c.AddCommandHandler("", func(ctx context.Context, m *Message, args []string) error { return nil }, false))
	assert.Nil(t, c.AddCommandHandler("//", func(ctx context.Context, m *Message, args []string) error { return nil }, false))
	assert.Empty(t, c.handlers.handlersFor(OnMessage))
}

func TestClient_RemoveHandle(t *testing.T) {
	c := newTestClient(t)
	h := c.AddMessageHandler(func(ctx context.Context, m *Message) error { return nil })
	cmd := c.OnCommand("start", func(ctx context.Context, m *Message) error { return nil })

	require.NoError(t, c.RemoveHandle(h))
	assert.Error(t, c.RemoveHandle(h))
	assert.ErrorIs(t, c.RemoveHandle(nil), ErrInvalidHandler)

	c.RemoveAllHandlers()
	assert.Error(t, c.RemoveHandle(cmd))
}
