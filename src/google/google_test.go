package google

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

var fastRetry = RetryPolicy{Attempts: 3, Min: time.Millisecond, Max: 2 * time.Millisecond}

func TestRetryable(t *testing.T) {
	cases := map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
		http.StatusNotFound:            false,
		http.StatusBadRequest:          false,
	}
	for code, want := range cases {
		err := &googleapi.Error{Code: code}
		if got := Retryable(err); got != want {
			t.Fatalf("code %d: expected %v, got %v", code, want, got)
		}
	}
	if Retryable(errors.New("plain")) {
		t.Fatal("expected plain errors to be permanent")
	}
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), "test", func() error {
		calls++
		return &googleapi.Error{Code: http.StatusForbidden}
	})
	if StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestRetryPolicy_GivesUp(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), "test", func() error {
		calls++
		return &googleapi.Error{Code: http.StatusTooManyRequests}
	})
	if err == nil || calls != fastRetry.Attempts {
		t.Fatalf("expected failure after %d calls, got %d (%v)", fastRetry.Attempts, calls, err)
	}
}

func TestCredentials_Missing(t *testing.T) {
	if _, err := (Credentials{}).ClientOptions(); err == nil {
		t.Fatal("expected error without credentials")
	}
	opts, err := Credentials{JSON: `{"type":"service_account"}`}.ClientOptions()
	if err != nil || len(opts) != 1 {
		t.Fatalf("expected one option, got %d (%v)", len(opts), err)
	}
}
