package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/records/memory"
	"github.com/stake-plus/activity-tickets/src/slots"
)

// ============================================================================
// Test fixtures
// ============================================================================

var tuesday = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

var target = records.Target{SpreadsheetID: "sheet-1", SheetName: "Sheet1", FolderID: "folder-1"}

type fixture struct {
	store *memory.Store
	blobs *memory.Blobs
	sink  *recordingSink
	rec   *Reconciler
	now   time.Time
}

func newFixture(t *testing.T, layout string) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		blobs: memory.NewBlobs(),
		sink:  &recordingSink{},
		now:   tuesday,
	}
	f.store.AddTable(target.SpreadsheetID, target.SheetName)
	factory, err := records.NewLedgerFactory(layout, f.store)
	if err != nil {
		t.Fatalf("NewLedgerFactory: %v", err)
	}
	if layout == records.LayoutLog {
		if err := factory(target).Prepare(context.Background()); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
	}
	f.rec = New(Config{
		Ledgers: factory,
		Blobs:   f.blobs,
		Resizer: f.store,
		Clock:   func() time.Time { return f.now },
		Sinks:   []Sink{f.sink},
	})
	return f
}

func submission(image string) Submission {
	return Submission{
		Target:      target,
		GuildID:     "guild-1",
		SubmitterID: "1001",
		Tag:         "alice#0001",
		DisplayName: "Alice",
		JoinedAt:    tuesday.Add(-50 * time.Hour),
		ChannelName: "ticket-alice-0001",
		Image:       []byte(image),
		ContentType: "image/png",
		Filename:    "shot.png",
	}
}

// blobCell reads Tuesday's Drive File ID cell.
func (f *fixture) blobCell() string {
	block, _ := slots.Grid(2)
	return f.store.Cell(target.SpreadsheetID, target.SheetName, block.BlobIDRow(), 1)
}

type recordingSink struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (s *recordingSink) Record(ctx context.Context, report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

// ============================================================================
// Create and replace
// ============================================================================

func TestReconcile_CreatesRecord(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)

	out := f.rec.Reconcile(context.Background(), submission("image-a"))
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Kind != KindCreated {
		t.Fatalf("expected created, got %s", out.Kind)
	}
	if out.DayLabel != "Tuesday" {
		t.Fatalf("expected Tuesday, got %s", out.DayLabel)
	}
	if out.Coordinate != "'Sheet1'!B18:B24" {
		t.Fatalf("unexpected coordinate %s", out.Coordinate)
	}
	if got := f.blobCell(); got != out.BlobID {
		t.Fatalf("expected record to reference %s, got %q", out.BlobID, got)
	}
	if got := f.store.Cell(target.SpreadsheetID, target.SheetName, 18, 1); got != "Alice" {
		t.Fatalf("expected display name, got %q", got)
	}
	if got := f.store.Cell(target.SpreadsheetID, target.SheetName, 23, 1); got != "2d 2h" {
		t.Fatalf("expected tenure snapshot, got %q", got)
	}

	blob, ok := f.blobs.Get(out.BlobID)
	if !ok {
		t.Fatal("expected uploaded blob")
	}
	if blob.Meta.ParentFolderID != "folder-1" {
		t.Fatalf("expected upload into folder-1, got %q", blob.Meta.ParentFolderID)
	}
	if want := "1001-1749565800000-shot.png"; blob.Meta.Name != want {
		t.Fatalf("expected blob name %s, got %s", want, blob.Meta.Name)
	}
}

func TestReconcile_SameDayReplaceDeletesPriorBlob(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.now = tuesday.Add(3 * time.Hour)
	second := f.rec.Reconcile(ctx, submission("image-b"))

	if !second.OK() || second.Kind != KindReplaced {
		t.Fatalf("expected replace, got %s (%v)", second.Kind, second.Err)
	}
	if second.PriorBlobID != first.BlobID {
		t.Fatalf("expected prior %s, got %s", first.BlobID, second.PriorBlobID)
	}
	if f.blobs.Has(first.BlobID) {
		t.Fatalf("expected %s to be deleted", first.BlobID)
	}
	if !f.blobs.Has(second.BlobID) {
		t.Fatalf("expected %s to survive", second.BlobID)
	}
	if got := f.blobCell(); got != second.BlobID {
		t.Fatalf("expected record to reference %s, got %q", second.BlobID, got)
	}
}

func TestReconcile_NextDayUsesNewSlot(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.now = tuesday.Add(24 * time.Hour)
	second := f.rec.Reconcile(ctx, submission("image-b"))

	if second.Kind != KindCreated || second.DayLabel != "Wednesday" {
		t.Fatalf("expected new Wednesday record, got %s %s", second.Kind, second.DayLabel)
	}
	if !f.blobs.Has(first.BlobID) {
		t.Fatal("expected Tuesday blob to be kept")
	}
}

// ============================================================================
// Failure semantics
// ============================================================================

func TestReconcile_UploadFailureLeavesRecord(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	before := f.store.Rows(target.SpreadsheetID, target.SheetName)
	updates := f.store.Updates

	f.blobs.FailCreate = errors.New("drive down")
	out := f.rec.Reconcile(ctx, submission("image-b"))

	if out.OK() || !errors.Is(out.Err, ErrUpload) {
		t.Fatalf("expected upload failure, got %v", out.Err)
	}
	if f.store.Updates != updates {
		t.Fatal("expected no record write after failed upload")
	}
	after := f.store.Rows(target.SpreadsheetID, target.SheetName)
	if len(after) != len(before) || f.blobCell() != first.BlobID {
		t.Fatal("expected record to be unchanged")
	}
	if !f.blobs.Has(first.BlobID) || len(f.blobs.Deleted) != 0 {
		t.Fatal("expected no blob deletes after failed upload")
	}
}

func TestReconcile_UploadFailureOnFirstSubmission(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	f.blobs.FailCreate = errors.New("drive down")

	out := f.rec.Reconcile(context.Background(), submission("image-a"))
	if out.Kind != KindFailed {
		t.Fatalf("expected failure, got %s", out.Kind)
	}
	if rows := f.store.Rows(target.SpreadsheetID, target.SheetName); len(rows) != 0 {
		t.Fatalf("expected Tuesday block to stay absent, got %v", rows)
	}
}

func TestReconcile_WriteFailureDeletesOrphan(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.store.FailUpdate = errors.New("quota")
	out := f.rec.Reconcile(ctx, submission("image-b"))

	if !errors.Is(out.Err, ErrWrite) {
		t.Fatalf("expected write failure, got %v", out.Err)
	}
	if out.BlobID == "" || f.blobs.Has(out.BlobID) {
		t.Fatalf("expected orphaned upload %q to be deleted", out.BlobID)
	}
	if !f.blobs.Has(first.BlobID) {
		t.Fatal("expected prior blob to survive a failed write")
	}
	if f.blobCell() != first.BlobID {
		t.Fatal("expected record to keep referencing the prior blob")
	}
}

func TestReconcile_LookupFailureProceeds(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.store.FailGet = errors.New("read timeout")
	out := f.rec.Reconcile(ctx, submission("image-b"))

	if !out.OK() {
		t.Fatalf("expected success despite read failure, got %v", out.Err)
	}
	if out.PriorBlobID != "" {
		t.Fatalf("expected no prior blob, got %s", out.PriorBlobID)
	}
	if !f.blobs.Has(first.BlobID) {
		t.Fatal("expected unknown prior blob to be left alone")
	}
}

func TestReconcile_PriorDeleteFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.blobs.FailDeleteIDs = map[string]error{first.BlobID: errors.New("already gone")}
	out := f.rec.Reconcile(ctx, submission("image-b"))

	if !out.OK() || out.Kind != KindReplaced {
		t.Fatalf("expected replace, got %s (%v)", out.Kind, out.Err)
	}
	if f.blobCell() != out.BlobID {
		t.Fatal("expected record to reference the new blob")
	}
}

func TestReconcile_InvalidSubmission(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	sub := submission("")

	out := f.rec.Reconcile(context.Background(), sub)
	if !errors.Is(out.Err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", out.Err)
	}
	if len(f.blobs.Created) != 0 {
		t.Fatal("expected no upload")
	}
}

// ============================================================================
// Locking, layouts and sinks
// ============================================================================

func TestReconcile_ConcurrentSameSubmitterLeavesOneBlob(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.rec.Reconcile(ctx, submission("image-"+string(rune('a'+i))))
		}(i)
	}
	wg.Wait()

	ids := f.blobs.IDs()
	if len(ids) != 1 {
		t.Fatalf("expected exactly one live blob, got %v", ids)
	}
	if f.blobCell() != ids[0] {
		t.Fatalf("expected record to reference %s, got %s", ids[0], f.blobCell())
	}
}

func TestReconcile_LogLayoutAndResize(t *testing.T) {
	f := newFixture(t, records.LayoutLog)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.now = tuesday.Add(time.Hour)
	second := f.rec.Reconcile(ctx, submission("image-b"))

	if second.Kind != KindReplaced || second.PriorBlobID != first.BlobID {
		t.Fatalf("expected log replace of %s, got %s prior=%s", first.BlobID, second.Kind, second.PriorBlobID)
	}
	if f.store.Appends != 1 {
		t.Fatalf("expected one appended row, got %d", f.store.Appends)
	}
	if f.store.Resizes != 2 {
		t.Fatalf("expected a resize per successful write, got %d", f.store.Resizes)
	}
	if got := f.store.Cell(target.SpreadsheetID, target.SheetName, 2, slots.LogColBlobID); got != second.BlobID {
		t.Fatalf("expected appended row to hold %s, got %q", second.BlobID, got)
	}
}

func TestReconcile_LogReadFailureUpdatesExistingRow(t *testing.T) {
	f := newFixture(t, records.LayoutLog)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.store.FailGetOnce = errors.New("read timeout")
	second := f.rec.Reconcile(ctx, submission("image-b"))

	if !second.OK() || second.Kind != KindReplaced {
		t.Fatalf("expected replace, got %s (%v)", second.Kind, second.Err)
	}
	if second.PriorBlobID != first.BlobID {
		t.Fatalf("expected prior %s, got %q", first.BlobID, second.PriorBlobID)
	}
	rows := f.store.Rows(target.SpreadsheetID, target.SheetName)
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if got := rows[1][slots.LogColBlobID]; got != second.BlobID {
		t.Fatalf("expected row to hold %s, got %q", second.BlobID, got)
	}
	if ids := f.blobs.IDs(); len(ids) != 1 || ids[0] != second.BlobID {
		t.Fatalf("expected only %s to be live, got %v", second.BlobID, ids)
	}
}

func TestReconcile_LogUnreadableFailsWrite(t *testing.T) {
	f := newFixture(t, records.LayoutLog)
	ctx := context.Background()

	first := f.rec.Reconcile(ctx, submission("image-a"))
	f.store.FailGet = errors.New("read timeout")
	out := f.rec.Reconcile(ctx, submission("image-b"))

	if !errors.Is(out.Err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", out.Err)
	}
	if f.store.Appends != 1 {
		t.Fatalf("expected no second row, got %d appends", f.store.Appends)
	}
	if ids := f.blobs.IDs(); len(ids) != 1 || ids[0] != first.BlobID {
		t.Fatalf("expected only %s to be live, got %v", first.BlobID, ids)
	}
}

func TestReconcile_ReportsToSinks(t *testing.T) {
	f := newFixture(t, records.LayoutGrid)
	f.sink.err = errors.New("sink offline")

	out := f.rec.Reconcile(context.Background(), submission("image-a"))
	if !out.OK() {
		t.Fatalf("expected sink errors to be ignored, got %v", out.Err)
	}
	if len(f.sink.reports) != 1 {
		t.Fatalf("expected one report, got %d", len(f.sink.reports))
	}
	rep := f.sink.reports[0]
	if rep.OperationID == "" || rep.ImageDigest != Digest([]byte("image-a")) || rep.GuildID != "guild-1" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func TestCellText(t *testing.T) {
	cases := map[string]string{
		"Alice":           "Alice",
		"<b>Bob</b>":      "<b>Bob</b>",
		"<Kai>":           "<Kai>",
		"a<b>c":           "a<b>c",
		"<3 Bob":          "<3 Bob",
		"Tom & Jerry":     "Tom & Jerry",
		`=HYPERLINK("x")`: `'=HYPERLINK("x")`,
		"  +1 ":           "'+1",
		"@everyone":       "'@everyone",
	}
	for in, want := range cases {
		if got := CellText(in); got != want {
			t.Fatalf("CellText(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBlobName(t *testing.T) {
	at := time.UnixMilli(1700000000123).UTC()
	if got := BlobName("42", at, "../../etc/shot.jpg"); got != "42-1700000000123-shot.jpg" {
		t.Fatalf("unexpected name %s", got)
	}
	if got := BlobName("42", at, ""); got != "42-1700000000123-screenshot.png" {
		t.Fatalf("unexpected default name %s", got)
	}
}
