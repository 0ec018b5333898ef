// Package rest issues one-shot command/response exchanges against a Quaddle
// server. Every call is independent: serialize, attach the session token,
// send, await exactly one response, deserialize. Calls may run concurrently;
// the only shared state is the read-only token source.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quaddle/quaddle-sdk-go/quaddle"
)

// Client is the request issuer.
type Client struct {
	baseURL    string
	tokens     TokenSource
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a REST client. baseURL is the server root, e.g.
// "http://localhost:8080". tokens may be nil if only unauthenticated
// endpoints are used.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient overrides the HTTP client (timeouts, proxies, transports).
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetUserAgent sets the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// Signup creates an account and returns the new user. Does not log in.
func (c *Client) Signup(ctx context.Context, name, password string) (quaddle.User, error) {
	if name == "" || password == "" {
		return quaddle.User{}, quaddle.NewError(quaddle.KindValidation, "empty name or password")
	}
	var resp signupResponse
	err := c.exchange(ctx, http.MethodPost, "/auth/signup", credentials{name, password}, &resp, false)
	if err != nil {
		return quaddle.User{}, err
	}
	return resp.NewUser, nil
}

// Login exchanges credentials for a session token and identity.
func (c *Client) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	if name == "" || password == "" {
		return nil, quaddle.NewError(quaddle.KindValidation, "empty name or password")
	}
	var resp LoginResult
	err := c.exchange(ctx, http.MethodPost, "/auth/login", credentials{name, password}, &resp, false)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateMessage posts a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channel quaddle.ChannelID, content string) (quaddle.Message, error) {
	if content == "" {
		return quaddle.Message{}, quaddle.NewError(quaddle.KindValidation, "empty message content")
	}
	var msg quaddle.Message
	path := "/channels/" + channel.String() + "/messages"
	if err := c.exchange(ctx, http.MethodPost, path, contentBody{content}, &msg, true); err != nil {
		return quaddle.Message{}, err
	}
	return msg, nil
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(ctx context.Context, channel quaddle.ChannelID, message quaddle.MessageID, content string) (quaddle.Message, error) {
	if content == "" {
		return quaddle.Message{}, quaddle.NewError(quaddle.KindValidation, "empty message content")
	}
	var msg quaddle.Message
	path := "/channels/" + channel.String() + "/messages/" + message.String()
	if err := c.exchange(ctx, http.MethodPatch, path, contentBody{content}, &msg, true); err != nil {
		return quaddle.Message{}, err
	}
	return msg, nil
}

// FetchMessage retrieves a single message.
func (c *Client) FetchMessage(ctx context.Context, channel quaddle.ChannelID, message quaddle.MessageID) (quaddle.Message, error) {
	var msg quaddle.Message
	path := "/channels/" + channel.String() + "/messages/" + message.String()
	if err := c.exchange(ctx, http.MethodGet, path, nil, &msg, false); err != nil {
		return quaddle.Message{}, err
	}
	return msg, nil
}

// MessageHistory retrieves messages in a channel, newest first. A non-nil
// before cursor returns only messages older than that ID.
func (c *Client) MessageHistory(ctx context.Context, channel quaddle.ChannelID, before *quaddle.MessageID) ([]quaddle.Message, error) {
	path := "/channels/" + channel.String() + "/messages"
	if before != nil {
		path += "?before=" + before.String()
	}
	var resp historyResponse
	if err := c.exchange(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// FetchChannel retrieves channel metadata.
func (c *Client) FetchChannel(ctx context.Context, channel quaddle.ChannelID) (quaddle.Channel, error) {
	var ch quaddle.Channel
	if err := c.exchange(ctx, http.MethodGet, "/channels/"+channel.String(), nil, &ch, false); err != nil {
		return quaddle.Channel{}, err
	}
	return ch, nil
}

// exchange performs one request/response cycle.
func (c *Client) exchange(ctx context.Context, method, path string, body, dest any, needsAuth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return quaddle.WrapError(quaddle.KindValidation, "marshal request", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return quaddle.WrapError(quaddle.KindValidation, "create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if needsAuth {
		token := ""
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return quaddle.NewError(quaddle.KindAuth, "authorization needed")
		}
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return quaddle.WrapError(quaddle.KindTransport, "http request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return quaddle.WrapError(quaddle.KindTransport, "read response", err)
	}

	if resp.StatusCode >= 400 {
		return apiStatusError(resp.StatusCode, raw)
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return quaddle.WrapError(quaddle.KindProtocol, "unmarshal response", err)
		}
	}
	return nil
}

func apiStatusError(status int, body []byte) error {
	reason := ""
	var errResp apiError
	if err := json.Unmarshal(body, &errResp); err == nil {
		reason = errResp.Reason
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return quaddle.NewError(quaddle.KindAuth, reason)
	default:
		return quaddle.NewError(quaddle.KindProtocol, reason)
	}
}
