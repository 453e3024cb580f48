package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sakif/maxsports/internal/storage"
)

// REMOTE API BEARER TOKENS:
// The remote exercise API authenticates with "Authorization: Bearer <token>",
// where the token comes back from POST /auth/login or /auth/signup. That is
// exactly what an oauth2.Transport does with a TokenSource, so instead of
// setting headers by hand the catalog client wraps its http.Client with one:
//
//	http.Client{Transport: &oauth2.Transport{Source: store.TokenSource(ctx)}}
//
// The TokenSource reads the token from the durable scope on every request,
// so a login in one place (CLI) is picked up by a long-running server, and a
// cleared token (logout, 401) stops authenticated calls immediately.

// ErrNoAPIToken is returned by the TokenSource when no token is stored.
var ErrNoAPIToken = errors.New("auth: no remote API token stored")

// APITokenStore persists the remote API token under storage.KeyAPIToken.
type APITokenStore struct {
	scope storage.Scope
}

func NewAPITokenStore(scope storage.Scope) *APITokenStore {
	return &APITokenStore{scope: scope}
}

// Token returns the stored token, "" when there is none.
func (s *APITokenStore) Token(ctx context.Context) (string, error) {
	tok, err := storage.GetString(ctx, s.scope, storage.KeyAPIToken)
	if err != nil {
		return "", fmt.Errorf("auth: reading API token: %w", err)
	}
	return tok, nil
}

// SetToken stores token; an empty token clears it.
func (s *APITokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.scope.Clear(ctx, storage.KeyAPIToken)
	}
	return s.scope.Set(ctx, storage.KeyAPIToken, []byte(token))
}

// TokenSource adapts the store to oauth2.TokenSource for requests made
// under ctx.
func (s *APITokenStore) TokenSource(ctx context.Context) oauth2.TokenSource {
	return storedToken{ctx: ctx, store: s}
}

type storedToken struct {
	ctx   context.Context
	store *APITokenStore
}

func (t storedToken) Token() (*oauth2.Token, error) {
	tok, err := t.store.Token(t.ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, ErrNoAPIToken
	}
	// No expiry: the remote API signals expiry with a 401 instead.
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// BearerClient returns an http.Client that sends the stored token on every
// request made with it. base supplies the underlying transport and timeout.
func (s *APITokenStore) BearerClient(ctx context.Context, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: s.TokenSource(ctx), Base: transport},
		Timeout:   base.Timeout,
	}
}
