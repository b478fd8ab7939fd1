package records_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/records/memory"
	"github.com/stake-plus/activity-tickets/src/slots"
)

const (
	sheetID   = "sheet-1"
	sheetName = "Sheet1"
)

var tuesday = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func newLedger(t *testing.T, layout string) (records.Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddTable(sheetID, sheetName)
	ledger, err := records.NewLedger(layout, store, records.Target{SpreadsheetID: sheetID, SheetName: sheetName})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return ledger, store
}

func sampleRecord(tag, blobID string, at time.Time) records.Record {
	return records.Record{
		SubmitterID: "1001",
		Tag:         tag,
		DisplayName: "Commander",
		BlobID:      blobID,
		BlobLink:    memory.Link(blobID),
		SubmittedAt: at,
		ChannelName: "ticket-alice-0001",
	}
}

// ============================================================================
// Factory
// ============================================================================

func TestNewLedger_Layouts(t *testing.T) {
	store := memory.NewStore()
	for layout, want := range map[string]string{"": records.LayoutGrid, "grid": records.LayoutGrid, "LOG": records.LayoutLog} {
		ledger, err := records.NewLedger(layout, store, records.Target{})
		if err != nil {
			t.Fatalf("layout %q: %v", layout, err)
		}
		if ledger.Layout() != want {
			t.Fatalf("layout %q: expected %s, got %s", layout, want, ledger.Layout())
		}
	}
	if _, err := records.NewLedgerFactory("columns", store); err == nil {
		t.Fatal("expected error for unknown layout")
	}
}

// ============================================================================
// Grid layout
// ============================================================================

func TestGridLedger_LookupVacant(t *testing.T) {
	ledger, _ := newLedger(t, records.LayoutGrid)

	slot, err := ledger.Lookup(context.Background(), records.KeyFor("alice#0001", tuesday))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if slot.Exists {
		t.Fatal("expected vacant slot")
	}
	if slot.Coordinate != "'Sheet1'!B18:B24" {
		t.Fatalf("expected Tuesday value range, got %s", slot.Coordinate)
	}
	if slot.DayLabel != "Tuesday" {
		t.Fatalf("expected Tuesday, got %s", slot.DayLabel)
	}
}

func TestGridLedger_WriteThenLookup(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutGrid)
	key := records.KeyFor("alice#0001", tuesday)

	slot, _ := ledger.Lookup(ctx, key)
	if _, err := ledger.Write(ctx, slot, sampleRecord("alice#0001", "blob-9", tuesday)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := store.Cell(sheetID, sheetName, 18, 1); got != "Commander" {
		t.Fatalf("expected display name in B18, got %q", got)
	}
	if got := store.Cell(sheetID, sheetName, 19, 1); got != slots.HyperlinkFormula(memory.Link("blob-9"), slots.ScreenshotLabel) {
		t.Fatalf("unexpected screenshot cell %q", got)
	}
	if got := store.Cell(sheetID, sheetName, 20, 1); got != "06-10-25 14:30 UTC" {
		t.Fatalf("unexpected timestamp %q", got)
	}
	if got := store.Cell(sheetID, sheetName, 24, 1); got != "blob-9" {
		t.Fatalf("expected blob id in B24, got %q", got)
	}

	again, err := ledger.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !again.Exists || again.BlobID != "blob-9" {
		t.Fatalf("expected existing slot with blob-9, got %+v", again)
	}
}

func TestGridLedger_AddressIgnoresTag(t *testing.T) {
	ledger, _ := newLedger(t, records.LayoutGrid)
	a := ledger.Address(records.KeyFor("alice#0001", tuesday))
	b := ledger.Address(records.KeyFor("bob#0002", tuesday))
	if a != b {
		t.Fatalf("expected same grid address, got %s and %s", a, b)
	}
	if a == ledger.Address(records.KeyFor("alice#0001", tuesday.Add(24*time.Hour))) {
		t.Fatal("expected different address on another day")
	}
}

func TestGridLedger_LookupErrorStillWritable(t *testing.T) {
	ledger, store := newLedger(t, records.LayoutGrid)
	store.FailGet = errors.New("quota")

	slot, err := ledger.Lookup(context.Background(), records.KeyFor("alice#0001", tuesday))
	if err == nil {
		t.Fatal("expected lookup error")
	}
	if slot.Coordinate == "" || slot.Exists {
		t.Fatalf("expected writable vacant slot, got %+v", slot)
	}
}

func TestGridLedger_SnapshotAndClearAll(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutGrid)
	if err := ledger.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for i, day := range []int{0, 2, 6} {
		at := slots.DateOfDay(tuesday, day)
		slot, _ := ledger.Lookup(ctx, records.KeyFor("alice#0001", at))
		blob := []string{"b0", "b2", "b6"}[i]
		if _, err := ledger.Write(ctx, slot, sampleRecord("alice#0001", blob, at)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	snapshot, err := ledger.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snapshot) != slots.DaysPerWeek {
		t.Fatalf("expected 7 slots, got %d", len(snapshot))
	}
	var blobs []string
	for _, slot := range snapshot {
		if slot.Exists {
			blobs = append(blobs, slot.BlobID)
		}
	}
	if len(blobs) != 3 || blobs[0] != "b0" || blobs[1] != "b2" || blobs[2] != "b6" {
		t.Fatalf("unexpected snapshot blobs %v", blobs)
	}

	if err := ledger.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if store.Clears != 1 {
		t.Fatalf("expected a single batched clear, got %d", store.Clears)
	}
	if got := store.Cell(sheetID, sheetName, 17, 0); got != "Tuesday" {
		t.Fatalf("expected labels to survive clear, got %q", got)
	}
	after, _ := ledger.Snapshot(ctx)
	for _, slot := range after {
		if slot.Exists {
			t.Fatalf("expected empty week, %s still holds %v", slot.DayLabel, slot.Values)
		}
	}
}

func TestGridLedger_PrepareIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutGrid)

	if err := ledger.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if store.Updates != 1 {
		t.Fatalf("expected labels written once, got %d updates", store.Updates)
	}
	if err := ledger.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if store.Updates != 1 {
		t.Fatalf("expected no rewrite of current labels, got %d updates", store.Updates)
	}
	if got := store.Cell(sheetID, sheetName, 1, 0); got != "Sunday" {
		t.Fatalf("expected Sunday header in A1, got %q", got)
	}
}

func TestGridLedger_PrepareMissingSheet(t *testing.T) {
	store := memory.NewStore()
	ledger, _ := records.NewLedger(records.LayoutGrid, store, records.Target{SpreadsheetID: sheetID, SheetName: "Nope"})
	err := ledger.Prepare(context.Background())
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================================
// Log layout
// ============================================================================

func TestLogLedger_AppendThenUpdateSameDay(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutLog)
	if err := ledger.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	key := records.KeyFor("alice#0001", tuesday)

	slot, err := ledger.Lookup(ctx, key)
	if err != nil || slot.Exists {
		t.Fatalf("expected vacant slot, got %+v (%v)", slot, err)
	}
	if _, err := ledger.Write(ctx, slot, sampleRecord("alice#0001", "blob-1", tuesday)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if store.Appends != 1 {
		t.Fatalf("expected append, got %d", store.Appends)
	}

	later := tuesday.Add(2 * time.Hour)
	slot, err = ledger.Lookup(ctx, records.KeyFor("alice#0001", later))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !slot.Exists || slot.Row != 2 || slot.BlobID != "blob-1" {
		t.Fatalf("expected row 2 with blob-1, got %+v", slot)
	}
	if _, err := ledger.Write(ctx, slot, sampleRecord("alice#0001", "blob-2", later)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if store.Appends != 1 {
		t.Fatalf("expected in-place update, got %d appends", store.Appends)
	}
	rows := store.Rows(sheetID, sheetName)
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[1][slots.LogColBlobID] != "blob-2" {
		t.Fatalf("expected blob-2, got %q", rows[1][slots.LogColBlobID])
	}
}

func TestLogLedger_WriteLocatesRowUnknownToSlot(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutLog)
	if err := ledger.Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	key := records.KeyFor("alice#0001", tuesday)

	stale, _ := ledger.Lookup(ctx, key)
	if _, err := ledger.Write(ctx, stale, sampleRecord("alice#0001", "blob-1", tuesday)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	written, err := ledger.Write(ctx, stale, sampleRecord("alice#0001", "blob-2", tuesday.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !written.Relocated || written.Displaced != "blob-1" || written.Row != 2 {
		t.Fatalf("expected row 2 displacing blob-1, got %+v", written)
	}
	if store.Appends != 1 {
		t.Fatalf("expected in-place update, got %d appends", store.Appends)
	}

	store.FailGet = errors.New("quota")
	if _, err := ledger.Write(ctx, records.Slot{}, sampleRecord("alice#0001", "blob-3", tuesday)); err == nil {
		t.Fatal("expected write to fail when the row cannot be located")
	}
	if store.Appends != 1 {
		t.Fatalf("expected no blind append, got %d appends", store.Appends)
	}
}

func TestLogLedger_OtherSubmitterAppends(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutLog)
	_ = ledger.Prepare(ctx)

	for _, tag := range []string{"alice#0001", "bob#0002"} {
		slot, _ := ledger.Lookup(ctx, records.KeyFor(tag, tuesday))
		if _, err := ledger.Write(ctx, slot, sampleRecord(tag, "blob-"+tag, tuesday)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if store.Appends != 2 {
		t.Fatalf("expected two appends, got %d", store.Appends)
	}
	if ledger.Address(records.KeyFor("alice#0001", tuesday)) == ledger.Address(records.KeyFor("bob#0002", tuesday)) {
		t.Fatal("expected distinct log addresses per submitter")
	}
}

func TestLogLedger_SnapshotAndClear(t *testing.T) {
	ctx := context.Background()
	ledger, store := newLedger(t, records.LayoutLog)
	_ = ledger.Prepare(ctx)

	monday := slots.DateOfDay(tuesday, 1)
	for _, at := range []time.Time{monday, tuesday} {
		slot, _ := ledger.Lookup(ctx, records.KeyFor("alice#0001", at))
		if _, err := ledger.Write(ctx, slot, sampleRecord("alice#0001", "blob-"+slots.FormatDate(at), at)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	snapshot, err := ledger.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(snapshot))
	}
	if snapshot[0].DayLabel != "Monday" || snapshot[1].DayLabel != "Tuesday" {
		t.Fatalf("unexpected days %s, %s", snapshot[0].DayLabel, snapshot[1].DayLabel)
	}

	if err := ledger.ClearSlots(ctx, snapshot[:1]); err != nil {
		t.Fatalf("ClearSlots: %v", err)
	}
	remaining, _ := ledger.Snapshot(ctx)
	if len(remaining) != 1 || remaining[0].DayLabel != "Tuesday" {
		t.Fatalf("expected only Tuesday left, got %+v", remaining)
	}

	if err := ledger.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if got := store.Cell(sheetID, sheetName, 1, 0); got != slots.LogHeaders[0] {
		t.Fatalf("expected header to survive, got %q", got)
	}
	empty, _ := ledger.Snapshot(ctx)
	if len(empty) != 0 {
		t.Fatalf("expected no rows, got %d", len(empty))
	}
}
