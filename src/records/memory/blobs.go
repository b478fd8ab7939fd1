package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/stake-plus/activity-tickets/src/records"
)

var _ records.BlobStore = (*Blobs)(nil)

// Blob is a file held by Blobs.
type Blob struct {
	Meta     records.FileMetadata
	MimeType string
	Content  []byte
}

// Blobs is an in-memory file store issuing sequential ids.
type Blobs struct {
	mu    sync.Mutex
	seq   int
	files map[string]Blob

	FailCreate error
	FailDelete error
	// FailDeleteIDs fails deletes of specific ids only.
	FailDeleteIDs map[string]error

	Created []string
	Deleted []string
}

// NewBlobs returns an empty blob store.
func NewBlobs() *Blobs {
	return &Blobs{files: make(map[string]Blob)}
}

// Put seeds a file under a fixed id.
func (b *Blobs) Put(id string, blob Blob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[id] = blob
}

// Has reports whether id is stored.
func (b *Blobs) Has(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[id]
	return ok
}

// Get returns the stored file.
func (b *Blobs) Get(id string) (Blob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.files[id]
	return blob, ok
}

// IDs lists stored ids in order.
func (b *Blobs) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.files))
	for id := range b.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Link is the view link issued for id.
func Link(id string) string {
	return "https://drive.local/file/d/" + id + "/view"
}

func (b *Blobs) CreateFile(ctx context.Context, meta records.FileMetadata, content io.Reader, mimeType string) (*records.StoredFile, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailCreate != nil {
		return nil, b.FailCreate
	}
	b.seq++
	id := fmt.Sprintf("blob-%d", b.seq)
	b.files[id] = Blob{Meta: meta, MimeType: mimeType, Content: data}
	b.Created = append(b.Created, id)
	return &records.StoredFile{ID: id, WebViewLink: Link(id)}, nil
}

func (b *Blobs) DeleteFile(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete != nil {
		return b.FailDelete
	}
	if err := b.FailDeleteIDs[id]; err != nil {
		return err
	}
	if _, ok := b.files[id]; !ok {
		return fmt.Errorf("memory: file %s: %w", id, records.ErrNotFound)
	}
	delete(b.files, id)
	b.Deleted = append(b.Deleted, id)
	return nil
}
