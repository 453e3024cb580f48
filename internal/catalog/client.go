// Package catalog is the exercise catalog: the client of the remote exercise
// API, the embedded offline catalog, and the View that turns a page of
// exercises into searchable, sortable cards with favorite state.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
)

// DefaultBaseURL is the remote exercise API.
const DefaultBaseURL = "https://dae-mobile-assignment.hkit.cc/api"

// Bookmark results reported by the remote API.
const (
	NewlyBookmarked   = "newly bookmarked"
	AlreadyBookmarked = "already bookmarked"
	NewlyDeleted      = "newly deleted"
	AlreadyDeleted    = "already deleted"
)

// Params are the query parameters of GET /exercises. Zero values are left
// out of the query string.
type Params struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     string
	Order    string
}

func (p Params) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	for key, val := range map[string]string{
		"search":   strings.TrimSpace(p.Search),
		"category": p.Category,
		"sort":     p.Sort,
		"order":    p.Order,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// Pagination is the paging block of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ExercisePage is one page of GET /exercises.
type ExercisePage struct {
	Items      []model.Exercise `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	UserID int    `json:"user_id"`
	Token  string `json:"token"`
}

// Source lists exercises. Client is the remote implementation, SeedSource
// the offline one.
type Source interface {
	ListExercises(ctx context.Context, p Params) (*ExercisePage, error)
	// Origin is the scheme://host that relative media paths resolve
	// against; nil when there is none.
	Origin() *url.URL
}

// Client talks to the remote exercise API.
//
// Public calls use the plain http.Client. Authenticated calls go through
// tokens.BearerClient, which attaches the stored token with an
// oauth2.Transport.
type Client struct {
	baseURL string
	origin  *url.URL
	http    *http.Client
	tokens  *auth.APITokenStore
	logger  *slog.Logger
}

var _ Source = (*Client)(nil)

// NewClient returns a client for baseURL ("" means DefaultBaseURL). A nil
// httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, tokens *auth.APITokenStore, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog: invalid base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: baseURL,
		origin:  &url.URL{Scheme: u.Scheme, Host: u.Host},
		http:    httpClient,
		tokens:  tokens,
		logger:  logger,
	}, nil
}

func (c *Client) Origin() *url.URL { return c.origin }

// remoteExercise accepts the camelCase media names some deployments of the
// API use next to the documented snake_case ones.
type remoteExercise struct {
	model.Exercise
	ImageURLCamel string `json:"imageUrl"`
	VideoURLCamel string `json:"videoUrl"`
	BodyPartCamel string `json:"bodyPart"`
}

// ListExercises fetches one page of exercises.
func (c *Client) ListExercises(ctx context.Context, p Params) (*ExercisePage, error) {
	endpoint := c.baseURL + "/exercises"
	if q := p.values().Encode(); q != "" {
		endpoint += "?" + q
	}

	var resp struct {
		Items      []remoteExercise `json:"items"`
		Pagination Pagination       `json:"pagination"`
	}
	if err := doJSON(ctx, c.http, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	page := &ExercisePage{
		Items:      make([]model.Exercise, 0, len(resp.Items)),
		Pagination: resp.Pagination,
	}
	for _, r := range resp.Items {
		e := r.Exercise
		if e.ImageURL == "" {
			e.ImageURL = r.ImageURLCamel
		}
		if e.VideoURL == "" {
			e.VideoURL = r.VideoURLCamel
		}
		if e.BodyPart == "" {
			e.BodyPart = r.BodyPartCamel
		}
		page.Items = append(page.Items, e)
	}
	return page, nil
}

// Login authenticates against the remote API and stores the token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", username, password)
}

// Signup creates a remote account and stores the token.
func (c *Client) Signup(ctx context.Context, username, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/signup", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}

	var resp AuthResponse
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, apperror.Network("exercise service returned no token")
	}
	if err := c.tokens.SetToken(ctx, resp.Token); err != nil {
		return nil, err
	}

	c.logger.Info("remote API session started", slog.Int("remoteUserID", resp.UserID))
	return &resp, nil
}

// CheckAuth returns the remote user id of the stored token, or nil when no
// token is stored (no request is made then) or the API reports none.
func (c *Client) CheckAuth(ctx context.Context) (*int, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, nil
	}

	var resp struct {
		UserID *int `json:"user_id"`
	}
	if err := c.authed(ctx, http.MethodGet, "/auth/check", &resp); err != nil {
		return nil, err
	}
	return resp.UserID, nil
}

// Logout forgets the stored token. The remote API has no logout endpoint.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.SetToken(ctx, "")
}

// Bookmark adds exerciseID to the remote bookmarks and returns the API's
// message (NewlyBookmarked or AlreadyBookmarked).
func (c *Client) Bookmark(ctx context.Context, exerciseID int) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.authed(ctx, http.MethodPost, "/bookmarks/"+strconv.Itoa(exerciseID), &resp)
	return resp.Message, err
}

// Unbookmark removes exerciseID from the remote bookmarks and returns the
// API's message (NewlyDeleted or AlreadyDeleted).
func (c *Client) Unbookmark(ctx context.Context, exerciseID int) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.authed(ctx, http.MethodDelete, "/bookmarks/"+strconv.Itoa(exerciseID), &resp)
	return resp.Message, err
}

// Bookmarks returns the ids of the remote bookmarks.
func (c *Client) Bookmarks(ctx context.Context) ([]int, error) {
	var resp struct {
		ItemIDs []int `json:"item_ids"`
	}
	if err := c.authed(ctx, http.MethodGet, "/bookmarks", &resp); err != nil {
		return nil, err
	}
	if resp.ItemIDs == nil {
		resp.ItemIDs = []int{}
	}
	return resp.ItemIDs, nil
}

// authed performs an authenticated call. Without a stored token it fails
// with apperror.ErrUnauthorized before any request; a 401 clears the token.
func (c *Client) authed(ctx context.Context, method, path string, out any) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return apperror.Unauthorized("log in to the exercise service first")
	}

	err = doJSON(ctx, c.tokens.BearerClient(ctx, c.http), method, c.baseURL+path, nil, out)
	if errors.Is(err, apperror.ErrUnauthorized) {
		if clearErr := c.tokens.SetToken(ctx, ""); clearErr != nil {
			c.logger.Warn("failed to clear rejected API token", slog.String("error", clearErr.Error()))
		}
		c.logger.Info("remote API token rejected, cleared")
	}
	return err
}
