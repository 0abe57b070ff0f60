package form_test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/amarnathcjd/balegram/internal/encoding/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyboard struct {
	Rows [][]string `json:"rows"`
}

type sendDocumentParams struct {
	ChatID      int64     `json:"chat_id"`
	Caption     string    `json:"caption,omitempty"`
	ReplyTo     *int      `json:"reply_to_message_id,omitempty"`
	Silent      bool      `json:"disable_notification"`
	ReplyMarkup *keyboard `json:"reply_markup,omitempty"`
	Internal    string    `json:"-"`
	NoTag       float64
	unexported  string
}

func TestFields_Struct(t *testing.T) {
	fields, err := form.Fields(&sendDocumentParams{
		ChatID:      7,
		ReplyMarkup: &keyboard{Rows: [][]string{{"a", "b"}}},
		Internal:    "secret",
		NoTag:       1.5,
		unexported:  "x",
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{
		{"chat_id", "7"},
		{"disable_notification", "false"},
		{"reply_markup", `{"rows":[["a","b"]]}`},
		{"NoTag", "1.5"},
	}, fields)
}

func TestFields_MapIsSortedAndSkipsNil(t *testing.T) {
	fields, err := form.Fields(map[string]any{
		"text":    "hi",
		"chat_id": int64(42),
		"markup":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"chat_id", "42"}, {"text", "hi"}}, fields)
}

func TestFields_Unsupported(t *testing.T) {
	_, err := form.Fields(42)
	assert.Error(t, err)

	_, err = form.Fields(map[int]string{1: "a"})
	assert.Error(t, err)

	fields, err := form.Fields(nil)
	assert.NoError(t, err)
	assert.Nil(t, fields)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, form.Write(w, map[string]string{"chat_id": "7"}))
	require.NoError(t, w.Close())

	r := multipart.NewReader(&buf, w.Boundary())
	f, err := r.ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, f.Value["chat_id"])
}

type SendOptions struct {
	ParseMode string `json:"parse_mode,omitempty"`
	Silent    bool   `json:"disable_notification,omitempty"`
}

type sendPhotoParams struct {
	ChatID int64 `json:"chat_id"`
	SendOptions
	Options SendOptions `json:"options"`
}

func TestFields_EmbeddedStructIsFlattened(t *testing.T) {
	fields, err := form.Fields(sendPhotoParams{
		ChatID:      3,
		SendOptions: SendOptions{ParseMode: "HTML"},
		Options:     SendOptions{Silent: true},
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"chat_id", "3"},
		{"parse_mode", "HTML"},
		{"options", `{"disable_notification":true}`},
	}, fields)
}
