// Package nyt provides clients for the two NYT games endpoints the sync
// engine consumes: the per-date puzzle metadata lookup and the bulk
// game-state fetch. Both are narrow, injectable clients so the sync engine
// can swap them out in tests.
package nyt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// maxRetries is the number of additional attempts after a transient
// failure (timeout or 5xx). Not-found and auth rejections never retry.
const maxRetries = 1

// PuzzleInfo is the per-date puzzle metadata returned by the lookup service.
type PuzzleInfo struct {
	ID        int64  `json:"id"`
	PrintDate string `json:"print_date"`
	Solution  string `json:"solution"`
}

// PuzzleClient resolves calendar dates to puzzle identifiers via the
// public per-date metadata endpoint. One request per date; requests are
// rate limited so a large first sync does not hammer the service.
type PuzzleClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// NewPuzzleClient creates a new PuzzleClient.
// lookupRate is the maximum number of lookups per second.
func NewPuzzleClient(httpClient *http.Client, baseURL string, timeout time.Duration, lookupRate float64) *PuzzleClient {
	if lookupRate <= 0 {
		lookupRate = 5
	}
	return &PuzzleClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(lookupRate), 1),
	}
}

// PuzzleForDate resolves the puzzle published on the given date
// (formatted YYYY-MM-DD). Returns ErrNotFound when the service has no
// puzzle for that date.
func (c *PuzzleClient) PuzzleForDate(ctx context.Context, date string) (*PuzzleInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body, err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/%s.json", c.baseURL, date), nil, c.timeout)
	if err != nil {
		return nil, err
	}

	var info PuzzleInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode puzzle info for %s: %w", date, err)
	}
	if info.ID == 0 {
		return nil, ErrNotFound
	}
	return &info, nil
}

// getJSON performs a GET with a per-call timeout and a single retry on
// transient failures. 404 maps to ErrNotFound, 401/403 to ErrUnauthorized;
// neither is retried.
func getJSON(ctx context.Context, hc *http.Client, reqURL string, cookies []*http.Cookie, timeout time.Duration) ([]byte, error) {
	var body []byte

	op := func() error {
		reqCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		for _, ck := range cookies {
			req.AddCookie(ck)
		}

		resp, err := hc.Do(req)
		if err != nil {
			// Timeouts and connection errors are transient
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			b, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return fmt.Errorf("failed to read response body: %w", readErr)
			}
			body = b
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(ErrUnauthorized)
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error: %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status: %s", resp.Status))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return body, nil
}
