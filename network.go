// Copyright (c) 2024 RoseLoverX

package balegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/amarnathcjd/balegram/internal/encoding/form"
	"github.com/amarnathcjd/balegram/internal/transport"
	"github.com/amarnathcjd/balegram/internal/utils"
)

const (
	DefaultBaseURL        = "https://tapi.bale.ai"
	DefaultRequestTimeout = 10 * time.Second
)

type NetworkConfig struct {
	// Bot token, required
	Token string
	// API base, default: https://tapi.bale.ai
	BaseURL string
	// Custom HTTP client; Proxy is ignored when set
	HTTPClient *http.Client
	// Optional http/https/socks5 proxy
	Proxy *url.URL
	// Deadline applied to calls whose context has none, default: 10s
	RequestTimeout time.Duration
	Logger         *utils.Logger
}

// Network performs single Bot API calls over one reused HTTP client.
type Network struct {
	token          string
	baseURL        string
	client         *http.Client
	requestTimeout time.Duration
	log            *utils.Logger
}

// InputFile is a file attached to a call. A call with at least one file is
// sent as multipart/form-data.
type InputFile struct {
	// Form field the file goes into, e.g. "document" or "photo"
	Field  string
	Name   string
	Reader io.Reader
}

type responseParameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

type apiResponse struct {
	Ok          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

func NewNetwork(c NetworkConfig) (*Network, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, NewError(KindAuth, "", errors.New("bot token cannot be empty"))
	}
	if c.Logger == nil {
		c.Logger = utils.NewLogger("balegram.network")
	}

	client := c.HTTPClient
	if client == nil {
		tr, err := transport.NewHTTPTransport(c.Proxy)
		if err != nil {
			return nil, errors.Wrap(err, "creating http transport")
		}
		client = &http.Client{Transport: tr}
	}

	return &Network{
		token:          c.Token,
		baseURL:        strings.TrimRight(getStr(c.BaseURL, DefaultBaseURL), "/"),
		client:         client,
		requestTimeout: getDuration(c.RequestTimeout, DefaultRequestTimeout),
		log:            c.Logger,
	}, nil
}

func (n *Network) Token() string { return n.token }

func (n *Network) BaseURL() string { return n.baseURL }

// MethodURL is <base>/bot<token>/<method>.
func (n *Network) MethodURL(method string) string {
	return n.baseURL + "/bot" + n.token + "/" + method
}

// FileURL is <base>/file/bot<token>/<path>.
func (n *Network) FileURL(filePath string) string {
	return n.baseURL + "/file/bot" + n.token + "/" + strings.TrimLeft(filePath, "/")
}

// Invoke calls method and returns the raw `result`. A KindServer failure
// is retried once when the request can be replayed (no files attached).
func (n *Network) Invoke(ctx context.Context, method string, params any, files ...InputFile) (json.RawMessage, error) {
	res, err := n.InvokeOnce(ctx, method, params, files...)
	if err != nil && len(files) == 0 && IsKind(err, KindServer) && ctx.Err() == nil {
		n.log.Debug("%s failed with a server error, retrying once: %v", method, err)
		return n.InvokeOnce(ctx, method, params)
	}
	return res, err
}

// InvokeOnce calls method exactly once.
func (n *Network) InvokeOnce(ctx context.Context, method string, params any, files ...InputFile) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok && n.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.requestTimeout)
		defer cancel()
	}

	req, err := n.newRequest(ctx, method, params, files)
	if err != nil {
		return nil, NewError(KindValidation, method, err)
	}

	n.log.Debug("-> %s", method)
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(method, n.maskURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(method, err)
	}
	return n.decode(method, resp.StatusCode, body)
}

// InvokeInto decodes the result of method into out.
func (n *Network) InvokeInto(ctx context.Context, method string, params, out any, files ...InputFile) error {
	res, err := n.Invoke(ctx, method, params, files...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res, out); err != nil {
		return NewError(KindUnknown, method, errors.Wrap(err, "decoding result"))
	}
	return nil
}

func (n *Network) newRequest(ctx context.Context, method string, params any, files []InputFile) (*http.Request, error) {
	if len(files) == 0 {
		var body io.Reader = http.NoBody
		if params != nil {
			b, err := json.Marshal(params)
			if err != nil {
				return nil, errors.Wrap(err, "encoding params")
			}
			body = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.MethodURL(method), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := form.Write(w, params); err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Reader == nil || f.Field == "" {
			return nil, errors.Errorf("file for field %q has no reader", f.Field)
		}
		part, err := w.CreateFormFile(f.Field, getStr(f.Name, f.Field))
		if err != nil {
			return nil, errors.Wrapf(err, "creating part %s", f.Field)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, errors.Wrapf(err, "copying %s", f.Field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.MethodURL(method), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func (n *Network) decode(method string, status int, body []byte) (json.RawMessage, error) {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		kind := ClassifyError(status, 0, "")
		if status < 400 {
			kind = KindUnknown
		}
		return nil, &ErrResponseCode{
			Kind:        kind,
			Code:        status,
			Description: "unparsable response: " + http.StatusText(status),
			Method:      method,
			cause:       err,
		}
	}

	if !r.Ok {
		e := &ErrResponseCode{
			Kind:        ClassifyError(status, r.ErrorCode, r.Description),
			Code:        r.ErrorCode,
			Description: r.Description,
			Method:      method,
		}
		if e.Code == 0 {
			e.Code = status
		}
		if r.Parameters != nil {
			e.RetryAfter = r.Parameters.RetryAfter
		}
		if e.Kind == KindRateLimit && e.RetryAfter == 0 {
			e.RetryAfter = parseRetryAfter(r.Description)
		}
		return nil, e
	}
	return r.Result, nil
}

// Download streams the file at filePath (as returned by getFile) into w.
func (n *Network) Download(ctx context.Context, filePath string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.FileURL(filePath), http.NoBody)
	if err != nil {
		return 0, NewError(KindValidation, "download", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return 0, classifyTransportError("download", n.maskURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &ErrResponseCode{
			Kind:        ClassifyError(resp.StatusCode, 0, ""),
			Code:        resp.StatusCode,
			Description: "download failed: " + http.StatusText(resp.StatusCode),
			Method:      "download",
		}
	}
	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, classifyTransportError("download", err)
	}
	return written, nil
}

// maskURLError keeps the token out of *url.Error messages without losing
// the underlying (possibly timeout) error.
func (n *Network) maskURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = utils.MaskURL(ue.URL, n.token)
	}
	return err
}
