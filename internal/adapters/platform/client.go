// Package platform is the HackTheBox API client used for rosters, activity
// feeds and ranking statistics.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

const (
	DefaultBaseURL = "https://www.hackthebox.com"

	defaultUserAgent  = "pwnwatch/1.0"
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
	maxErrorBody      = 512
	maxResponseBody   = 8 << 20
)

// Client talks to the platform API with a bearer app token.
type Client struct {
	baseURL    string
	token      string
	teamID     int64
	userAgent  string
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        logger.Logger
}

// New creates a Client for teamID. An empty baseURL selects DefaultBaseURL.
func New(baseURL, token string, teamID int64, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		teamID:     teamID,
		userAgent:  defaultUserAgent,
		http:       &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		log:        logger.Named("platform"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin, also used to absolutize avatar paths.
func (c *Client) BaseURL() string { return c.baseURL }

// getJSON fetches path and decodes the body into out, retrying 429, 5xx and
// transport errors up to maxRetries times.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	body, err := c.get(ctx, endpoint, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			metrics.RecordPlatformRequest(endpoint, "error", time.Since(start))
			if attempt < c.maxRetries && ctx.Err() == nil {
				if werr := c.wait(ctx, endpoint, attempt+1, ""); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, fmt.Errorf("platform %s: %w", endpoint, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		_ = resp.Body.Close()
		metrics.RecordPlatformRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
		if readErr != nil {
			return nil, fmt.Errorf("platform %s: reading body: %w", endpoint, readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}

		herr := &HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: trimBody(body)}
		if herr.Temporary() && attempt < c.maxRetries {
			if werr := c.wait(ctx, endpoint, attempt+1, resp.Header.Get("Retry-After")); werr != nil {
				return nil, werr
			}
			continue
		}
		return nil, herr
	}
}

func (c *Client) wait(ctx context.Context, endpoint string, attempt int, retryAfter string) error {
	delay := c.retryDelay(attempt, retryAfter)
	metrics.RecordPlatformRetry()
	c.log.Debug(ctx, "retrying platform request",
		logger.String("endpoint", endpoint),
		logger.Int("attempt", attempt),
		logger.Duration("delay", delay),
	)
	return sleepContext(ctx, delay)
}

func (c *Client) retryDelay(attempt int, retryAfter string) time.Duration {
	if d := parseRetryAfter(retryAfter); d > 0 {
		return min(d, c.maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return min(delay, c.maxDelay)
}

// parseRetryAfter accepts delta seconds or an HTTP date.
func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func trimBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

// absURL joins a relative asset path onto the API origin.
func (c *Client) absURL(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.baseURL + p
}
