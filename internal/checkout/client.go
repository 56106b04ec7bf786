package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 1024
	sessionIDParam        = "session_id"
)

var errSessionURLRequired = errors.New("checkout session url is required")

// Client talks to the hosted payment backend. It creates checkout sessions
// and verifies them after the shopper returns.
type Client struct {
	httpClient *http.Client
	sessionURL string
	verifyURL  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout replaces the default client with one using d.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithVerifyURL sets the session verification endpoint.
func WithVerifyURL(verifyURL string) Option {
	return func(c *Client) {
		c.verifyURL = strings.TrimSpace(verifyURL)
	}
}

// NewClient builds a client posting checkout sessions to sessionURL.
func NewClient(sessionURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(sessionURL)
	if trimmed == "" {
		return nil, errSessionURLRequired
	}

	client := &Client{
		sessionURL: trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateSession posts the handoff and returns the redirect URL.
func (c *Client) CreateSession(ctx context.Context, handoff Handoff) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout client not configured")
	}

	payload, err := json.Marshal(handoff)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal checkout session request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sessionURL, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build checkout session request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute checkout session request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp, "checkout session request failed")
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session response")
	}
	if strings.TrimSpace(body.URL) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session url not returned")
	}
	return body.URL, nil
}

// VerifySession asks the payment backend whether sessionID was paid. A 4xx
// answer means it was not; other failures are dependency errors.
func (c *Client) VerifySession(ctx context.Context, sessionID string) error {
	if c == nil || c.verifyURL == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment verification not configured")
	}
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	u, err := url.Parse(c.verifyURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse verify url")
	}
	q := u.Query()
	q.Set(sessionIDParam, trimmed)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build verify request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return pkgerrors.New(pkgerrors.CodePrecondition, "payment not confirmed").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": readSnippet(resp.Body)})
	default:
		return statusError(resp, "verify request failed")
	}
}

func statusError(resp *http.Response, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency,
		fmt.Errorf("status %d: %s", resp.StatusCode, readSnippet(resp.Body)), message)
}

func readSnippet(r io.Reader) string {
	msg, _ := io.ReadAll(io.LimitReader(r, responseBodyReadLimit))
	return strings.TrimSpace(string(msg))
}
