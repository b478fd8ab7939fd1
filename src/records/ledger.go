package records

import (
	"context"
	"fmt"
	"strings"
)

// Layout names.
const (
	LayoutGrid = "grid"
	LayoutLog  = "log"
)

// Ledger lays submission records out on one sheet. The grid and log layouts
// are interchangeable implementations.
type Ledger interface {
	Layout() string
	Target() Target

	// Address returns the stable identity of the coordinate key resolves to,
	// without I/O. Two submissions that would write the same cells share it.
	Address(key SlotKey) string

	// Lookup resolves key and reads what currently occupies it. The returned
	// slot is writable even when err is non-nil; it then carries no prior state.
	Lookup(ctx context.Context, key SlotKey) (Slot, error)

	// Write stores rec at slot and returns the final coordinate. A layout
	// whose slot carries no row locates it again before writing and reports
	// an occupant it overwrote through Relocated and Displaced.
	Write(ctx context.Context, slot Slot, rec Record) (Slot, error)

	// Snapshot reads every occupied or addressable slot in one read.
	Snapshot(ctx context.Context) ([]Slot, error)

	// ClearAll blanks every value field with one batched call.
	ClearAll(ctx context.Context) error

	// ClearSlots blanks the given slots with one batched call.
	ClearSlots(ctx context.Context, slots []Slot) error

	// Prepare checks the sheet exists and writes headers or labels when they
	// are missing or stale.
	Prepare(ctx context.Context) error
}

// LedgerFactory returns the ledger for a target.
type LedgerFactory func(Target) Ledger

// NewLedger builds the ledger for layout over store.
func NewLedger(layout string, store Store, target Target) (Ledger, error) {
	switch strings.ToLower(strings.TrimSpace(layout)) {
	case "", LayoutGrid:
		return &GridLedger{store: store, target: target}, nil
	case LayoutLog:
		return &LogLedger{store: store, target: target}, nil
	default:
		return nil, fmt.Errorf("records: unknown layout %q", layout)
	}
}

// NewLedgerFactory validates layout once and returns a factory for it.
func NewLedgerFactory(layout string, store Store) (LedgerFactory, error) {
	if _, err := NewLedger(layout, store, Target{}); err != nil {
		return nil, err
	}
	return func(target Target) Ledger {
		ledger, _ := NewLedger(layout, store, target)
		return ledger
	}, nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func column(values []string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, v := range values {
		out[i] = []interface{}{v}
	}
	return out
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func anyNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
