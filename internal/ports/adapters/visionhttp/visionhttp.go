// Package visionhttp is the shared HTTP transport for the vision provider
// adapters: bounded retries with linear jittered backoff, status
// classification onto the ports error taxonomy, and secret redaction in
// error bodies.
package visionhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/WDegan/metafootage-davinci-resolve/internal/ports"
)

const (
	DefaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	requestTimeout     = 90 * time.Second
)

// Client posts JSON payloads to a provider endpoint.
type Client struct {
	HTTP        *http.Client
	MaxAttempts int
	BackoffBase time.Duration
	// Secret is redacted from any error text.
	Secret string
}

// Post sends body to url, retrying timeouts, 5xx and rate-limit responses
// with a linearly growing, jittered backoff. Auth failures and
// malformed-request statuses propagate immediately. The successful response
// body is returned.
func (c Client) Post(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	backoffBase := c.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(backoffBase, attempt)); err != nil {
				return nil, err
			}
		}

		respBody, retryable, err := c.post(ctx, httpClient, url, header, body)
		if err == nil {
			return respBody, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (c Client) post(ctx context.Context, httpClient *http.Client, url string, header http.Header, body []byte) (respBody []byte, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		// Timeouts and transport hiccups are worth another attempt.
		return nil, true, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, true, fmt.Errorf("read response body: %w", readErr)
		}
		return b, false, nil
	}

	detail := truncate(RedactSecrets(string(b), c.Secret), 400)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w (status %d): %s", ports.ErrProviderAuth, resp.StatusCode, detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w (status %d): %s", ports.ErrRateLimited, resp.StatusCode, detail)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("provider status %d: %s", resp.StatusCode, detail)
	default:
		return nil, false, fmt.Errorf("%w (status %d): %s", ports.ErrBadRequest, resp.StatusCode, detail)
	}
}

// backoff grows linearly with the attempt number, plus up to base/2 jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	d := time.Duration(attempt) * base
	jitter := time.Duration(rand.Int63n(int64(base / 2)))
	return d + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(\bkey\s*[:=]\s*)([^\n\r,;&]+)`)
)

// RedactSecrets removes the API key and common auth shapes from provider
// error text before it reaches logs or the summary report.
func RedactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
