package models

import (
	"strings"

	"golang.org/x/oauth2"
)

// Session carries the authenticated service context given to the fetcher and the orchestrator
type Session struct {
	// BaseURL is the comparison service root, e.g. https://dms.example.com/api
	BaseURL string

	// Tokens yields the bearer token for each request
	Tokens oauth2.TokenSource
}

// NewSession creates a session with a static bearer token
func NewSession(baseURL, token string) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	}
}

// Token returns a valid token or ErrUnauthenticated
func (s *Session) Token() (*oauth2.Token, error) {
	if s == nil || s.Tokens == nil {
		return nil, ErrUnauthenticated
	}
	tok, err := s.Tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" || !tok.Valid() {
		return nil, ErrUnauthenticated
	}
	return tok, nil
}
