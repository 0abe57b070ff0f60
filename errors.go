// Copyright (c) 2024 RoseLoverX

package balegram

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrorKind buckets every failure the API (or the road to it) can produce.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindValidation
	KindNotFound
	KindForbidden
	KindRateLimit
	KindServer
	KindNetwork
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "AUTH"
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindServer:
		return "SERVER"
	case KindNetwork:
		return "NETWORK"
	case KindTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Retryable reports whether a poll loop should try again after a pause.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindServer, KindNetwork, KindTimeout:
		return true
	}
	return false
}

// ErrResponseCode is returned for every failed call, whether the server
// answered with ok=false or the request never completed.
type ErrResponseCode struct {
	Kind        ErrorKind
	Code        int
	Description string
	// RetryAfter is set (in seconds) for KindRateLimit when the server advised it.
	RetryAfter int
	Method     string
	cause      error
}

func (e *ErrResponseCode) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Description)
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %ds)", e.RetryAfter)
	}
	if e.Method != "" {
		fmt.Fprintf(&b, " (method: %s)", e.Method)
	}
	return b.String()
}

func (e *ErrResponseCode) Unwrap() error {
	return e.cause
}

// NewError builds an ErrResponseCode of the given kind around cause.
func NewError(kind ErrorKind, method string, cause error) *ErrResponseCode {
	desc := kind.String()
	if cause != nil {
		desc = cause.Error()
	}
	return &ErrResponseCode{Kind: kind, Description: desc, Method: method, cause: cause}
}

// ClassifyError maps an HTTP status and the API error_code/description onto
// an ErrorKind. The platform does not document its codes beyond Telegram
// compatibility, so unmatched combinations land in KindUnknown.
func ClassifyError(status, code int, description string) ErrorKind {
	if code == 0 {
		code = status
	}
	lower := strings.ToLower(description)
	switch {
	case code == http.StatusTooManyRequests || strings.Contains(lower, "too many requests"):
		return KindRateLimit
	case code == http.StatusUnauthorized:
		return KindAuth
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= 400 && code < 500:
		return KindValidation
	case code >= 500 && code < 600:
		return KindServer
	}
	switch {
	case status >= 500:
		return KindServer
	case status == http.StatusUnauthorized:
		return KindAuth
	}
	return KindUnknown
}

// classifyTransportError labels failures that happened before a response
// was read.
func classifyTransportError(method string, err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.Wrapf(err, "calling %s", method)
	}
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return NewError(kind, method, err)
}

// KindOf returns the kind of the first ErrResponseCode in err's chain.
func KindOf(err error) ErrorKind {
	var e *ErrResponseCode
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	var e *ErrResponseCode
	return errors.As(err, &e) && e.Kind == kind
}

// RetryAfter returns the server-advised pause of a rate-limit error, or 0.
func RetryAfter(err error) time.Duration {
	var e *ErrResponseCode
	if errors.As(err, &e) && e.Kind == KindRateLimit && e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}
