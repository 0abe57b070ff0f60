package bale

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testToken = "1:test-token"

type apiCall struct {
	Method string
	Params map[string]any
	Files  map[string]string
}

// fakeBot is an in-process Bot API: getUpdates serves queued batches (or an
// empty result), every other method is recorded and answered from replies.
type fakeBot struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	me      string
	meCode  int
	batches []string
	offsets []int64
	calls   []apiCall
	replies map[string]string
	files   map[string]string
}

func newFakeBot(t *testing.T) *fakeBot {
	f := &fakeBot{
		t:       t,
		me:      `{"id":1,"is_bot":true,"first_name":"Bot","username":"b"}`,
		replies: map[string]string{},
		files:   map[string]string{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBot) serve(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	if path, ok := strings.CutPrefix(r.URL.Path, "/file/bot"+testToken+"/"); ok {
		f.mu.Lock()
		body, found := f.files[path]
		f.mu.Unlock()
		if !found {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
		return
	}
	method, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
		return
	}
	call := apiCall{Method: method, Params: map[string]any{}, Files: map[string]string{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				call.Params[k] = v[0]
			}
			for k, fhs := range r.MultipartForm.File {
				fh, _ := fhs[0].Open()
				b, _ := io.ReadAll(fh)
				call.Files[k] = fhs[0].Filename + ":" + string(b)
			}
		}
	} else {
		b, _ := io.ReadAll(r.Body)
		if len(bytes.TrimSpace(b)) > 0 {
			_ = json.Unmarshal(b, &call.Params)
		}
	}

	switch method {
	case "getMe":
		f.mu.Lock()
		me, code := f.me, f.meCode
		f.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			return
		}
		writeResult(w, me)
	case "getUpdates":
		f.serveUpdates(w, r, call)
	default:
		f.mu.Lock()
		f.calls = append(f.calls, call)
		reply, ok := f.replies[method]
		f.mu.Unlock()
		if !ok {
			reply = `true`
			if strings.HasPrefix(method, "send") || method == "editMessageText" {
				reply = `{"message_id":99,"chat":{"id":7,"type":"private"},"text":"ok"}`
			}
		}
		writeResult(w, reply)
	}
}

func (f *fakeBot) serveUpdates(w http.ResponseWriter, r *http.Request, call apiCall) {
	offset, _ := call.Params["offset"].(float64)
	f.mu.Lock()
	f.offsets = append(f.offsets, int64(offset))
	var batch string
	if len(f.batches) > 0 {
		batch, f.batches = f.batches[0], f.batches[1:]
	}
	f.mu.Unlock()

	if batch == "" {
		// a short long-poll keeps the loop from spinning
		select {
		case <-time.After(20 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		batch = `[]`
	}
	writeResult(w, batch)
}

func writeResult(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"ok":true,"result":`+result+`}`)
}

// push queues one getUpdates result made of the given update objects.
func (f *fakeBot) push(updates ...string) {
	f.mu.Lock()
	f.batches = append(f.batches, "["+strings.Join(updates, ",")+"]")
	f.mu.Unlock()
}

func (f *fakeBot) polledOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.offsets...)
}

func (f *fakeBot) sawOffset(offset int64) bool {
	for _, o := range f.polledOffsets() {
		if o == offset {
			return true
		}
	}
	return false
}

func (f *fakeBot) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeBot) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBot) config() ClientConfig {
	return ClientConfig{
		Token:          testToken,
		BaseURL:        f.srv.URL,
		PollTimeout:    time.Second,
		RequestTimeout: 2 * time.Second,
		LogLevel:       LogDisable,
	}
}

func (f *fakeBot) client(mutate ...func(*ClientConfig)) *Client {
	cfg := f.config()
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(f.t, err)
	return c
}

// start runs c in the background and stops it when the test ends.
func start(t *testing.T, c *Client) <-chan error {
	errc := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		errc <- c.Run(context.Background())
	}()
	require.Eventually(t, func() bool { return c.State() == StateRunning && c.Me() != nil }, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		c.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return errc
}

func textUpdate(id int64, chatID int64, text string) string {
	b, _ := json.Marshal(map[string]any{
		"update_id": id,
		"message": map[string]any{
			"message_id": id,
			"chat":       map[string]any{"id": chatID, "type": "private"},
			"from":       map[string]any{"id": chatID, "first_name": "U"},
			"text":       text,
		},
	})
	return string(b)
}

// syncBuffer is a bytes.Buffer safe for a logger and a test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
