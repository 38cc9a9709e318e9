// Package strava is a minimal client for the Strava v3 segment and athlete endpoints.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/verte-zerg/pcrtt/internal/model"
)

const (
	// DefaultBaseURL is the public v3 API root.
	DefaultBaseURL = "https://www.strava.com/api/v3"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// MaxPerPage is the largest page size the API accepts.
	MaxPerPage = 200

	activityURLFormat = "https://www.strava.com/activities/%d"
	errorBodyLimit    = 4 << 10
)

// Client issues authenticated GET requests against the API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client that sends token as a bearer credential.
func New(ctx context.Context, token string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = DefaultTimeout

	c := &Client{
		baseURL: DefaultBaseURL,
		http:    httpClient,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &model.TransportError{Op: op, URL: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &model.TransportError{Op: op, URL: endpoint, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.log.Debug("api request",
		zap.String("op", op),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.TransportError{Op: op, URL: endpoint, StatusCode: resp.StatusCode, Err: statusError(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.TransportError{Op: op, URL: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	var payload apiError
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		detail = payload.Message
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("not authorized, check the API token: %s", detail)
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s", detail)
	}
	if detail == "" {
		detail = resp.Status
	}
	return fmt.Errorf("%s", detail)
}

// ActivityURL returns the public web page of an activity.
func ActivityURL(activityID int64) string {
	return fmt.Sprintf(activityURLFormat, activityID)
}

func checkElapsed(op string, seconds int) error {
	if seconds < 0 {
		return &model.TransportError{Op: op, Err: fmt.Errorf("malformed elapsed_time %d", seconds)}
	}
	return nil
}

func parseLocalTime(op, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &model.TransportError{Op: op, Err: fmt.Errorf("malformed start_date_local %q: %w", value, err)}
	}
	return t, nil
}
