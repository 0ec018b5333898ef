// Package session aggregates one authenticated Quaddle session: a REST
// request issuer and a lazily opened gateway connection sharing a single
// token. It is the entry point embedding layers (UI, CLI) talk to.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/quaddle/quaddle-sdk-go/quaddle"
	"github.com/quaddle/quaddle-sdk-go/quaddle/rest"
)

// Session is the authenticated context established by login.
type Session struct {
	// ID is the gateway session identifier. Empty until the gateway has
	// connected; the gateway is only opened on first use.
	ID    string
	Token string
	User  quaddle.User
}

// Client owns one session. The token is a single value guarded here; the
// request issuer and the gateway read it through the Client itself, so a
// login that replaces it is visible to every subsequent call.
type Client struct {
	cfg    quaddle.Config
	logger quaddle.Logger
	rest   *rest.Client

	mu    sync.Mutex
	token string
	user  quaddle.User
	gw    *quaddle.Gateway
}

// New creates a client for the server in cfg.URL. Nothing connects until
// login or the first gateway poll.
func New(cfg quaddle.Config) *Client {
	c := &Client{cfg: cfg, logger: quaddle.NewSlogLogger(nil)}
	c.rest = rest.NewClient(cfg.URL, c)
	if cfg.RequestTimeout > 0 {
		c.rest.SetHTTPClient(&http.Client{Timeout: cfg.RequestTimeout})
	}
	if cfg.UserAgent != "" {
		c.rest.SetUserAgent(cfg.UserAgent)
	}
	return c
}

// SetLogger overrides the logger used by the client and future gateways.
func (c *Client) SetLogger(l quaddle.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Token implements the token source shared with the request issuer and the
// gateway. It returns "" when logged out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// User returns the authenticated identity, or the zero User when logged out.
func (c *Client) User() quaddle.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Login exchanges credentials for a session. On success the new token is in
// place before Login returns, so no dependent call can see a stale one. On
// failure any previously established session is left untouched.
func (c *Client) Login(ctx context.Context, name, password string) (Session, error) {
	res, err := c.rest.Login(ctx, name, password)
	if err != nil {
		return Session{}, err
	}
	c.mu.Lock()
	c.token = res.Token
	c.user = res.User
	c.mu.Unlock()
	return Session{Token: res.Token, User: res.User}, nil
}

// Signup creates a new identity, then logs in with it.
func (c *Client) Signup(ctx context.Context, name, password string) (Session, error) {
	if _, err := c.rest.Signup(ctx, name, password); err != nil {
		return Session{}, err
	}
	return c.Login(ctx, name, password)
}

// Rest returns the request issuer bound to this session's token. Safe for
// concurrent use; each call is an independent exchange.
func (c *Client) Rest() *rest.Client {
	return c.rest
}

// Gateway returns the gateway connection for this session, creating it
// lazily. The transport itself is only opened on the first Next call.
// After the previous gateway has closed, a fresh one is created.
func (c *Client) Gateway() *quaddle.Gateway {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gw == nil || c.gw.State() == quaddle.StateClosed {
		gw := quaddle.NewGateway(c.cfg, c)
		gw.SetLogger(c.logger)
		c.gw = gw
	}
	return c.gw
}

// CreateMessage posts a message through the request issuer.
func (c *Client) CreateMessage(ctx context.Context, channel quaddle.ChannelID, content string) (quaddle.Message, error) {
	return c.rest.CreateMessage(ctx, channel, content)
}

// Close logs out: the token is invalidated and any live gateway connection,
// including in-flight reconnection activity, stops before Close returns.
func (c *Client) Close() error {
	c.mu.Lock()
	gw := c.gw
	c.gw = nil
	c.token = ""
	c.user = quaddle.User{}
	c.mu.Unlock()
	if gw != nil {
		return gw.Close()
	}
	return nil
}
