package tickets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ErrTooLarge is returned for attachments above the download limit.
var ErrTooLarge = errors.New("tickets: attachment too large")

// ErrNotImage is returned when downloaded bytes are not an image.
var ErrNotImage = errors.New("tickets: attachment is not an image")

// Fetcher downloads attachment bytes.
type Fetcher interface {
	// Fetch returns the body and its sniffed content type.
	Fetch(ctx context.Context, url string, limit int64) ([]byte, string, error)
}

// HTTPFetcher downloads over HTTP and checks the payload is an image.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps client, defaulting to one with a 30s timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, limit int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("tickets: build download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tickets: download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("tickets: download attachment: status %d", resp.StatusCode)
	}
	if limit > 0 && resp.ContentLength > limit {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	body := io.Reader(resp.Body)
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("tickets: read attachment: %w", err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, "", fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return sniffImage(content)
}

// sniffImage detects the content type of an image payload.
func sniffImage(content []byte) ([]byte, string, error) {
	if len(content) == 0 {
		return nil, "", fmt.Errorf("%w: empty body", ErrNotImage)
	}
	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}
	return content, mtype.String(), nil
}
