// Package zoho implements the rate-limited Zoho Inventory API client and the
// paginated extractor that drives it across whole collections.
package zoho

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// maxResponseSize limits response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client wraps outbound calls to the Zoho Inventory API: it acquires and
// refreshes the access credential, paces requests under the remote rate
// ceiling, and retries transient and throttled calls with bounded backoff.
//
// The limiter is the single source of truth for outbound request rate:
// however many goroutines call concurrently, the long-run rate never exceeds
// the configured ceiling.
type Client struct {
	cfg     *Config
	http    *http.Client
	limiter *rate.Limiter
	tokens  *tokenSource
	logger  *zap.Logger
}

// NewClient creates a Zoho client with the given configuration.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(perSecond, 1),
		tokens:  newTokenSource(cfg, httpClient),
		logger:  logger.Named("zoho"),
	}, nil
}

// callError carries retry classification for one attempt.
type callError struct {
	err        error
	retryable  bool
	retryAfter time.Duration
	authExpiry bool
}

// Get performs a GET against the inventory API and returns the raw body.
// 404 maps to pipeline.ErrNotFound without retries: a detail fetch for an
// item that disappeared between the list and detail calls is expected.
// 429 and network failures retry up to the configured bound, honouring the
// remote's Retry-After hint when present, then surface as
// pipeline.ErrRateLimited or pipeline.ErrTransient.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // attempts are bounded by MaxRetries, not wall clock

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			// Total credential-refresh failure is run-fatal.
			return nil, err
		}

		body, cerr := c.do(ctx, token, path, query)
		if cerr == nil {
			return body, nil
		}
		lastErr = cerr.err
		if !cerr.retryable {
			return nil, cerr.err
		}
		if cerr.authExpiry {
			c.tokens.Invalidate()
		}

		wait := cerr.retryAfter
		if wait <= 0 {
			wait = bo.NextBackOff()
		}
		c.logger.Warn("retrying request",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(cerr.err),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

// do performs a single attempt and classifies the failure.
func (c *Client) do(ctx context.Context, token, path string, query url.Values) ([]byte, *callError) {
	endpoint := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &callError{err: fmt.Errorf("zoho: build request: %w", err)}
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("X-com-zoho-inventory-organizationid", c.cfg.OrganizationID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &callError{err: ctx.Err()}
		}
		return nil, &callError{err: fmt.Errorf("%w: GET %s: %v", pipeline.ErrTransient, path, err), retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &callError{err: fmt.Errorf("%w: read %s: %v", pipeline.ErrTransient, path, err), retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &callError{err: fmt.Errorf("%w: GET %s", pipeline.ErrNotFound, path)}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &callError{
			err:        fmt.Errorf("%w: GET %s: credential rejected", pipeline.ErrTransient, path),
			retryable:  true,
			authExpiry: true,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &callError{
			err:        fmt.Errorf("%w: GET %s", pipeline.ErrRateLimited, path),
			retryable:  true,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &callError{err: fmt.Errorf("%w: GET %s: HTTP %d", pipeline.ErrTransient, path, resp.StatusCode), retryable: true}
	default:
		return nil, &callError{err: fmt.Errorf("zoho: GET %s: HTTP %d: %s", path, resp.StatusCode, truncate(body, 200))}
	}
}

// parseRetryAfter reads a Retry-After header in seconds form. Zero means no
// hint; the caller falls back to exponential backoff with jitter.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
