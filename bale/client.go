// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/amarnathcjd/balegram"
)

const (
	DefaultPollTimeout   = 30 * time.Second
	DefaultPollLimit     = 100
	DefaultShutdownGrace = time.Second
	// DefaultSeenSize is how many recent update ids are remembered for
	// duplicate suppression.
	DefaultSeenSize = 100
)

// ClientConfig is the configuration struct for the client
type ClientConfig struct {
	// Bot token issued by the platform, required
	Token string
	// API base, default: https://tapi.bale.ai
	BaseURL string
	// bbolt file the update offset is checkpointed in, used with PersistOffset
	DatabaseName string
	// Restore and store the update offset in DatabaseName
	PersistOffset bool
	// Log "bot @username (id) started" once identity is known
	AutoLogStartMessage bool
	// Dump every raw update at debug level
	Debug bool
	// Set log level (debug, info, warn, error, disable), default: info
	LogLevel LogLevel
	// Custom logger, LogLevel is applied to it
	Logger Logger
	// Long-poll timeout, default: 30s
	PollTimeout time.Duration
	// Max updates per poll, default: 100
	PollLimit int
	// Per-request deadline for everything but polls, default: 10s
	RequestTimeout time.Duration
	// How long handlers may keep running after Stop, default: 1s
	ShutdownGrace time.Duration
	// Max handlers running at once, 0 means unbounded
	MaxConcurrentHandlers int
	// http, https or socks5 proxy
	Proxy *url.URL
	HTTPClient *http.Client

	// Called once after getMe, before the first poll
	OnReady func(ctx context.Context, c *Client)
	// Called once when Run returns
	OnClose func(c *Client)
}

// Client is the main struct of the library: it owns the connection to the
// Bot API, the handler registry and the dispatch loop.
type Client struct {
	config   *ClientConfig
	net      *balegram.Network
	Log      Logger
	handlers *registry
	waiters  *waiterTable
	ticker   *ticker
	states   *StateStore
	source   *UpdateSource

	meMu sync.RWMutex
	me   *User

	runState atomic.Int32
	mu       sync.Mutex
	stopPoll context.CancelFunc

	active atomic.Int64
	sem    chan struct{}
}

// NewClient validates c, fills in defaults and prepares the client. No
// network call is made until Run or an API method is used.
func NewClient(c ClientConfig) (*Client, error) {
	c.BaseURL = getStr(c.BaseURL, balegram.DefaultBaseURL)
	c.PollTimeout = getDuration(c.PollTimeout, DefaultPollTimeout)
	c.PollLimit = getInt(c.PollLimit, DefaultPollLimit)
	c.RequestTimeout = getDuration(c.RequestTimeout, balegram.DefaultRequestTimeout)
	c.ShutdownGrace = getDuration(c.ShutdownGrace, DefaultShutdownGrace)
	if c.LogLevel == "" {
		c.LogLevel = LogInfo
	}
	if c.Debug {
		c.LogLevel = LogDebug
	}
	if c.PersistOffset && c.DatabaseName == "" {
		return nil, errors.New("PersistOffset requires DatabaseName")
	}
	if c.MaxConcurrentHandlers < 0 {
		return nil, errors.Errorf("MaxConcurrentHandlers must not be negative, got %d", c.MaxConcurrentHandlers)
	}

	log := c.Logger
	if log == nil {
		log = NewLogger(c.LogLevel)
	} else {
		log.SetLevel(c.LogLevel)
	}

	network, err := balegram.NewNetwork(balegram.NetworkConfig{
		Token:          c.Token,
		BaseURL:        c.BaseURL,
		HTTPClient:     c.HTTPClient,
		Proxy:          c.Proxy,
		RequestTimeout: c.RequestTimeout,
		Logger:         internalLogger(log, "balegram.network"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating network")
	}

	client := &Client{
		config:   &c,
		net:      network,
		Log:      log,
		handlers: newRegistry(),
		waiters:  &waiterTable{},
		ticker:   newTicker(),
		states:   NewStateStore(),
	}
	client.source = NewUpdateSource(client, c.PollLimit, c.PollTimeout, log.WithPrefix("balegram.updates"))
	if c.MaxConcurrentHandlers > 0 {
		client.sem = make(chan struct{}, c.MaxConcurrentHandlers)
	}
	return client, nil
}

// Me is the bot identity fetched at startup, nil before Run has called getMe.
func (c *Client) Me() *User {
	c.meMu.RLock()
	defer c.meMu.RUnlock()
	return c.me
}

func (c *Client) setMe(u *User) {
	c.meMu.Lock()
	c.me = u
	c.meMu.Unlock()
}

func (c *Client) botUsername() string {
	if me := c.Me(); me != nil {
		return me.Username
	}
	return ""
}

// Network exposes the transport for calling methods this package has no
// wrapper for.
func (c *Client) Network() *balegram.Network {
	return c.net
}

// Source is the update source the dispatcher pulls from.
func (c *Client) Source() *UpdateSource {
	return c.source
}

// States is the per-user state store.
func (c *Client) States() *StateStore {
	return c.states
}

func (c *Client) Config() ClientConfig {
	return *c.config
}
