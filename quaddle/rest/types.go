package rest

import "github.com/quaddle/quaddle-sdk-go/quaddle"

// TokenSource yields the current session token for authenticated requests.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource for standalone REST use.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// LoginResult is what a successful login returns: the session token and
// the authenticated identity.
type LoginResult struct {
	Token string       `json:"token"`
	User  quaddle.User `json:"user"`
}

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signupResponse struct {
	NewUser quaddle.User `json:"new_user"`
}

type contentBody struct {
	Content string `json:"content"`
}

type historyResponse struct {
	Messages []quaddle.Message `json:"messages"`
}

type apiError struct {
	Reason string `json:"reason"`
}
