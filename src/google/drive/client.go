// Package drive adapts the Google Drive API to records.BlobStore.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/stake-plus/activity-tickets/src/google"
	"github.com/stake-plus/activity-tickets/src/records"
)

var _ records.BlobStore = (*Client)(nil)

// Client uploads and deletes screenshot files.
type Client struct {
	svc   *gdrive.Service
	retry google.RetryPolicy
}

// New creates a Drive client from service account credentials.
func New(ctx context.Context, creds google.Credentials, retry google.RetryPolicy) (*Client, error) {
	opts, err := creds.ClientOptions()
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: new service: %w", err)
	}
	if retry.Attempts == 0 {
		retry = google.DefaultRetry
	}
	return &Client{svc: svc, retry: retry}, nil
}

// CreateFile uploads content. The body is buffered so a retried attempt can
// resend it.
func (c *Client) CreateFile(ctx context.Context, meta records.FileMetadata, content io.Reader, mimeType string) (*records.StoredFile, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("drive: read upload: %w", err)
	}

	file := &gdrive.File{Name: meta.Name, MimeType: mimeType}
	if meta.ParentFolderID != "" {
		file.Parents = []string{meta.ParentFolderID}
	}

	var created *gdrive.File
	attempt := 0
	err = c.retry.Do(ctx, "create "+meta.Name, func() error {
		attempt++
		if attempt > 1 {
			// The failed attempt may have stored the file before its
			// response was lost. Names are unique per upload.
			found, err := c.findByName(ctx, meta)
			if err != nil {
				return err
			}
			if found != nil {
				log.Printf("drive: retried upload %s already stored as %s, reusing it", meta.Name, found.Id)
				created = found
				return nil
			}
			log.Printf("drive: retrying upload %s (attempt %d)", meta.Name, attempt)
		}
		var err error
		created, err = c.svc.Files.Create(file).
			Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
			Fields("id, webViewLink").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return &records.StoredFile{ID: created.Id, WebViewLink: created.WebViewLink}, nil
}

// findByName returns the live file named meta.Name in its folder, if any.
func (c *Client) findByName(ctx context.Context, meta records.FileMetadata) (*gdrive.File, error) {
	list, err := c.svc.Files.List().
		Q(nameQuery(meta)).
		Fields("files(id, webViewLink)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

func nameQuery(meta records.FileMetadata) string {
	q := fmt.Sprintf("name = '%s' and trashed = false", queryEscape(meta.Name))
	if meta.ParentFolderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", queryEscape(meta.ParentFolderID))
	}
	return q
}

func queryEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	err := c.retry.Do(ctx, "delete "+id, func() error {
		return c.svc.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do()
	})
	return classify(err)
}

func classify(err error) error {
	if err != nil && google.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %v", records.ErrNotFound, err)
	}
	return err
}
