// Package reconcile owns the submission write path: it is the only code that
// creates or replaces a record and the only code that uploads or deletes a
// screenshot blob for a submission.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stake-plus/activity-tickets/src/lock"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/slots"
)

var (
	// ErrInvalid marks a submission that cannot be reconciled at all.
	ErrInvalid = errors.New("reconcile: invalid submission")
	// ErrUpload marks a failed blob upload. The record was not touched.
	ErrUpload = errors.New("reconcile: upload failed")
	// ErrWrite marks a failed record write after a successful upload.
	ErrWrite = errors.New("reconcile: record write failed")
)

// DefaultContentType is assumed when an attachment carries none.
const DefaultContentType = "image/png"

// Kind says what a reconcile did to the record.
type Kind string

const (
	KindCreated  Kind = "created"
	KindReplaced Kind = "replaced"
	KindFailed   Kind = "failed"
)

// Submission is one qualifying image upload.
type Submission struct {
	Target      records.Target
	GuildID     string
	SubmitterID string
	Tag         string
	DisplayName string
	JoinedAt    time.Time
	ChannelName string

	Image       []byte
	ContentType string
	Filename    string
}

func (s Submission) validate() error {
	switch {
	case !s.Target.Valid():
		return fmt.Errorf("%w: no record target", ErrInvalid)
	case s.SubmitterID == "" || s.Tag == "":
		return fmt.Errorf("%w: no submitter", ErrInvalid)
	case len(s.Image) == 0:
		return fmt.Errorf("%w: empty image", ErrInvalid)
	}
	return nil
}

// Outcome reports a reconcile to the caller. Err is set only for KindFailed.
type Outcome struct {
	OperationID string
	Kind        Kind
	BlobID      string
	BlobLink    string
	PriorBlobID string
	DayLabel    string
	Coordinate  string
	SubmittedAt time.Time
	Err         error
}

// OK reports whether the record now references the new blob.
func (o Outcome) OK() bool {
	return o.Kind != KindFailed && o.Err == nil
}

// Replaced reports whether an existing record was overwritten.
func (o Outcome) Replaced() bool {
	return o.Kind == KindReplaced
}

// Config wires a Reconciler. Ledgers and Blobs are required.
type Config struct {
	Ledgers records.LedgerFactory
	Blobs   records.BlobStore
	Locks   *lock.Striped
	Resizer records.Resizer
	Clock   func() time.Time
	Sinks   []Sink
}

// Reconciler applies submissions to the record and blob stores.
type Reconciler struct {
	ledgers records.LedgerFactory
	blobs   records.BlobStore
	locks   *lock.Striped
	resizer records.Resizer
	clock   func() time.Time
	sinks   []Sink
}

// New builds a Reconciler.
func New(cfg Config) *Reconciler {
	r := &Reconciler{
		ledgers: cfg.Ledgers,
		blobs:   cfg.Blobs,
		locks:   cfg.Locks,
		resizer: cfg.Resizer,
		clock:   cfg.Clock,
		sinks:   cfg.Sinks,
	}
	if r.locks == nil {
		r.locks = lock.New(0)
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	return r
}

// Locks exposes the lock set so the weekly sweep can exclude reconciles.
func (r *Reconciler) Locks() *lock.Striped {
	return r.locks
}

// Reconcile stores sub as the submitter's record for the current UTC day.
// Adapter failures are reported through the Outcome, never returned.
func (r *Reconciler) Reconcile(ctx context.Context, sub Submission) Outcome {
	now := r.clock().UTC()
	out := Outcome{OperationID: uuid.NewString(), SubmittedAt: now}

	if err := sub.validate(); err != nil {
		out.Kind = KindFailed
		out.Err = err
		log.Printf("reconcile: %s: rejected submission from %s: %v", out.OperationID, sub.Tag, err)
		r.report(ctx, sub, out)
		return out
	}

	ledger := r.ledgers(sub.Target)
	key := records.KeyFor(sub.Tag, now)
	out.DayLabel = slots.DayLabel(key.Day)

	release := r.locks.Lock(ledger.Address(key))
	defer release()

	slot, err := ledger.Lookup(ctx, key)
	prior := slot.BlobID
	if err != nil {
		log.Printf("reconcile: %s: reading %s for %s failed, resolving the record at write time: %v",
			out.OperationID, slot.Coordinate, sub.Tag, err)
		prior = ""
	}
	out.Coordinate = slot.Coordinate

	contentType := sub.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	meta := records.FileMetadata{
		Name:           BlobName(sub.SubmitterID, now, sub.Filename),
		ParentFolderID: sub.Target.FolderID,
	}
	file, err := r.blobs.CreateFile(ctx, meta, bytes.NewReader(sub.Image), contentType)
	if err != nil {
		out.Kind = KindFailed
		out.Err = fmt.Errorf("%w: %w", ErrUpload, err)
		log.Printf("reconcile: %s: upload for %s at %s failed: %v", out.OperationID, sub.Tag, out.Coordinate, err)
		r.report(ctx, sub, out)
		return out
	}
	out.BlobID = file.ID
	out.BlobLink = file.WebViewLink

	rec := records.Record{
		SubmitterID: sub.SubmitterID,
		Tag:         sub.Tag,
		DisplayName: CellText(firstNonEmpty(sub.DisplayName, sub.Tag)),
		BlobID:      file.ID,
		BlobLink:    file.WebViewLink,
		SubmittedAt: now,
		ChannelName: CellText(sub.ChannelName),
	}
	if !sub.JoinedAt.IsZero() {
		rec.Tenure = now.Sub(sub.JoinedAt)
	}

	written, err := ledger.Write(ctx, slot, rec)
	if err != nil {
		out.Kind = KindFailed
		out.Err = fmt.Errorf("%w: %w", ErrWrite, err)
		log.Printf("reconcile: %s: writing %s for %s failed, removing orphaned blob %s: %v",
			out.OperationID, out.Coordinate, sub.Tag, file.ID, err)
		r.deleteBlob(ctx, out.OperationID, file.ID, "orphaned upload")
		r.report(ctx, sub, out)
		return out
	}
	out.Coordinate = written.Coordinate

	out.Kind = KindCreated
	if slot.Exists {
		out.Kind = KindReplaced
	}
	if written.Relocated {
		out.Kind = KindReplaced
		prior = written.Displaced
	}
	if prior != "" && prior != file.ID {
		out.PriorBlobID = prior
		r.deleteBlob(ctx, out.OperationID, prior, "superseded blob")
	}

	if r.resizer != nil && ledger.Layout() == records.LayoutLog {
		if err := r.resizer.AutoResizeColumns(context.WithoutCancel(ctx), sub.Target.SpreadsheetID, sub.Target.SheetName, slots.LogColumnCount); err != nil {
			log.Printf("reconcile: %s: resizing %s failed: %v", out.OperationID, sub.Target.SheetName, err)
		}
	}

	log.Printf("reconcile: %s: %s %s record for %s at %s (blob %s)",
		out.OperationID, out.Kind, out.DayLabel, sub.Tag, out.Coordinate, out.BlobID)
	r.report(ctx, sub, out)
	return out
}

// deleteBlob is best-effort; a stale or failing delete is logged only.
func (r *Reconciler) deleteBlob(ctx context.Context, op, id, why string) {
	if err := r.blobs.DeleteFile(context.WithoutCancel(ctx), id); err != nil {
		log.Printf("reconcile: %s: deleting %s %s failed: %v", op, why, id, err)
	}
}

// BlobName names an upload <submitterID>-<unixMillis>-<filename>.
func BlobName(submitterID string, now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "screenshot.png"
	}
	return fmt.Sprintf("%s-%d-%s", submitterID, now.UnixMilli(), name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
