// Copyright (c) 2024 RoseLoverX

package transport

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const (
	DefaultDialTimeout     = 10 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// NewHTTPTransport builds the keep-alive transport shared by every call a
// client makes. proxyURL may be nil; http, https and socks5 schemes are
// understood.
func NewHTTPTransport(proxyURL *url.URL) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   DefaultDialTimeout,
		ExpectContinueTimeout: time.Second,
	}

	if proxyURL == nil {
		return t, nil
	}

	switch proxyURL.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(proxyURL)
	case "socks5", "socks5h":
		d, err := dialProxy(proxyURL, dialer)
		if err != nil {
			return nil, err
		}
		t.DialContext = d
	default:
		return nil, errors.Errorf("unsupported proxy scheme: %s", proxyURL.Scheme)
	}
	return t, nil
}

func dialProxy(s *url.URL, forward *net.Dialer) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	d, err := proxy.FromURL(s, forward)
	if err != nil {
		return nil, errors.Wrap(err, "creating socks5 dialer")
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}, nil
}

// ParseProxy accepts an empty string as "no proxy".
func ParseProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing proxy url")
	}
	if u.Host == "" {
		return nil, errors.Errorf("proxy url %q has no host", raw)
	}
	return u, nil
}
