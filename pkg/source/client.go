// Package source implements the C3 source client: an authenticated reader
// for recent submissions from a forum's HTTP API (Reddit-shaped by default).
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/finsent/ingestor/pkg/submission"
)

const defaultBaseURL = "https://oauth.reddit.com"
const tokenURL = "https://www.reddit.com/api/v1/access_token"

// Client is the C3 source client contract: fetch(community, limit) plus
// close(). It authenticates once at construction and never retries
// transient failures internally — that decision belongs to the orchestrator.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	minInterval time.Duration
	timeout     time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// Config holds the parameters needed to construct a Client.
type Config struct {
	ClientID           string
	ClientSecret       string
	UserAgent          string
	MinRequestInterval time.Duration
	RequestTimeout     time.Duration

	// BaseURL and TokenURL override the upstream endpoints; used by tests.
	// Left empty, production defaults apply.
	BaseURL  string
	TokenURL string
}

// New authenticates against the source API using the OAuth2 client-credentials
// grant and returns a ready-to-use Client. Returns *AuthError if the
// credentials are rejected.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	tURL := cfg.TokenURL
	if tURL == "" {
		tURL = tokenURL
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tURL,
	}

	tokCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	if _, err := oauthCfg.Token(tokCtx); err != nil {
		return nil, &AuthError{Err: err}
	}

	return &Client{
		httpClient:  oauthCfg.Client(ctx),
		baseURL:     base,
		userAgent:   cfg.UserAgent,
		minInterval: cfg.MinRequestInterval,
		timeout:     cfg.RequestTimeout,
		logger:      logger,
	}, nil
}

// Fetch reads the most recent `limit` submissions from `community` in a
// single call.
func (c *Client) Fetch(ctx context.Context, community string, limit int) ([]submission.Submission, error) {
	c.throttle()

	url := fmt.Sprintf("%s/r/%s/new?limit=%d&raw_json=1", c.baseURL, community, limit)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.statusError(resp); err != nil {
		return nil, err
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("decoding listing: %w", err)}
	}

	subs := make([]submission.Submission, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		subs = append(subs, child.Data.normalize(community))
	}
	return subs, nil
}

// Close releases client resources. The client holds no resources beyond the
// shared http.Client, so this is a no-op kept for contract symmetry.
func (c *Client) Close() error { return nil }

func (c *Client) statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp), Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &TransientError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return &FatalError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// throttle enforces the configured minimum inter-request delay.
func (c *Client) throttle() {
	if c.minInterval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	wait := c.minInterval - time.Since(c.lastRequest)
	if wait > 0 {
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}
