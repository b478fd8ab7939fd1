// Package google holds what the Sheets and Drive adapters share: credentials,
// error classification and retry.
package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Credentials locates the service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// ClientOptions turns the credentials into client options.
func (c Credentials) ClientOptions() ([]option.ClientOption, error) {
	raw := strings.TrimSpace(c.JSON)
	if raw == "" && c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("google: read credentials %s: %w", c.File, err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, errors.New("google: no service account credentials configured")
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}, nil
}

// RetryPolicy bounds retries of transient API failures.
type RetryPolicy struct {
	Attempts int
	Min      time.Duration
	Max      time.Duration
}

// DefaultRetry retries a handful of times over a few seconds.
var DefaultRetry = RetryPolicy{Attempts: 4, Min: 500 * time.Millisecond, Max: 8 * time.Second}

// StatusCode returns the HTTP status carried by a googleapi error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// Retryable reports whether err is a rate limit or server-side failure.
func Retryable(err error) bool {
	code := StatusCode(err)
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Do runs fn until it succeeds, fails permanently, or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	b := &backoff.Backoff{Min: p.Min, Max: p.Max, Factor: 2, Jitter: true}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !Retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		wait := b.Duration()
		log.Printf("google: %s failed (attempt %d/%d), retrying in %v: %v", op, i+1, attempts, wait.Truncate(time.Millisecond), err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
