package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenResponse is the accounts endpoint's grant-exchange payload.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// tokenSource owns the single cached access credential. Concurrent callers
// serialize on the mutex, so at most one refresh is in flight and everyone
// else waits for its result instead of racing separate refreshes.
type tokenSource struct {
	cfg  *Config
	http *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(cfg *Config, httpClient *http.Client) *tokenSource {
	return &tokenSource{cfg: cfg, http: httpClient}
}

// Token returns a valid access token, refreshing via the refresh-token grant
// when the cached one is absent or near expiry. Refresh failure is run-fatal
// for the caller; there is no retry budget for a rejected grant.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry) {
		return t.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", t.cfg.ClientID)
	form.Set("client_secret", t.cfg.ClientSecret)
	form.Set("refresh_token", t.cfg.RefreshToken)

	endpoint := t.cfg.AuthBaseURL + "/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zoho: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoho: token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("zoho: read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("zoho: token exchange failed: HTTP %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("zoho: parse token response: %w", err)
	}
	if tr.Error != "" {
		msg := tr.ErrorDescription
		if msg == "" {
			msg = tr.Error
		}
		return "", fmt.Errorf("zoho: token exchange rejected: %s", msg)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("zoho: token exchange returned empty access token")
	}

	t.token = tr.AccessToken
	t.expiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpirySkew)
	return t.token, nil
}

// Invalidate drops the cached token so the next call refreshes. Used when the
// API reports the credential expired ahead of its advertised lifetime.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiry = time.Time{}
	t.mu.Unlock()
}
