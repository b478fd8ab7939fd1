package actions

import (
	"context"
	"testing"

	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/records/memory"
	"github.com/stake-plus/activity-tickets/src/slots"
)

func TestOpenStorage_Memory(t *testing.T) {
	cfg := &sharedconfig.TicketsConfig{
		Storage: sharedconfig.StorageMemory,
		Target:  records.Target{SpreadsheetID: "sheet-1", SheetName: "Sheet1"},
	}
	st, err := OpenStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if st.Records == nil || st.Blobs == nil || st.Resizer == nil || st.Marker == nil {
		t.Fatalf("expected every store wired, got %+v", st)
	}

	if _, err := OpenStorage(context.Background(), &sharedconfig.TicketsConfig{Storage: "floppy"}); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestPrepareTargets(t *testing.T) {
	store := memory.NewStore()
	def := records.Target{SpreadsheetID: "sheet-1", SheetName: "Sheet1"}
	other := records.Target{SpreadsheetID: "sheet-2", SheetName: "Week"}
	store.AddTable(def.SpreadsheetID, def.SheetName)
	store.AddTable(other.SpreadsheetID, other.SheetName)

	ledgers, err := records.NewLedgerFactory(records.LayoutLog, store)
	if err != nil {
		t.Fatalf("NewLedgerFactory: %v", err)
	}
	missing := records.Target{SpreadsheetID: "sheet-3", SheetName: "Gone"}
	if err := PrepareTargets(context.Background(), ledgers, def, []records.Target{def, other, missing, {}}); err != nil {
		t.Fatalf("PrepareTargets: %v", err)
	}
	for _, target := range []records.Target{def, other} {
		rows := store.Rows(target.SpreadsheetID, target.SheetName)
		if len(rows) == 0 || rows[0][0] != slots.LogHeaders[0] {
			t.Fatalf("expected headers on %s, got %v", target.Key(), rows)
		}
	}

	if err := PrepareTargets(context.Background(), ledgers, missing, nil); err == nil {
		t.Fatal("expected missing default target to fail")
	}
}
