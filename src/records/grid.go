package records

import (
	"context"
	"fmt"

	"github.com/stake-plus/activity-tickets/src/slots"
)

var _ Ledger = (*GridLedger)(nil)

// GridLedger stores one record per weekday in fixed blocks of column B.
// The coordinate depends on the day only.
type GridLedger struct {
	store  Store
	target Target
}

func (g *GridLedger) Layout() string { return LayoutGrid }

func (g *GridLedger) Target() Target { return g.target }

func (g *GridLedger) Address(key SlotKey) string {
	return fmt.Sprintf("%s#%s", g.target.Key(), slots.DayLabel(key.Day))
}

func (g *GridLedger) vacant(block slots.GridBlock) Slot {
	return Slot{
		Coordinate: block.ValueRange(g.target.SheetName),
		Day:        block.Day,
		DayLabel:   slots.DayLabel(block.Day),
		Row:        block.FirstRow,
	}
}

func (g *GridLedger) Lookup(ctx context.Context, key SlotKey) (Slot, error) {
	block, err := slots.Grid(key.Day)
	if err != nil {
		return Slot{}, err
	}
	slot := g.vacant(block)

	rows, err := g.store.GetRange(ctx, g.target.SpreadsheetID, slot.Coordinate)
	if err != nil {
		return slot, fmt.Errorf("grid: read %s: %w", slot.Coordinate, err)
	}

	values := make([]string, slots.GridFieldCount)
	for i := 0; i < slots.GridFieldCount && i < len(rows); i++ {
		values[i] = firstCell(rows[i])
	}
	slot.Values = values
	slot.BlobID = values[slots.FieldBlobID]
	slot.Exists = anyNonEmpty(values)
	return slot, nil
}

func (g *GridLedger) Write(ctx context.Context, slot Slot, rec Record) (Slot, error) {
	block, err := slots.Grid(slot.Day)
	if err != nil {
		return slot, err
	}
	values := make([]string, slots.GridFieldCount)
	values[slots.FieldDisplayName] = rec.DisplayName
	values[slots.FieldScreenshot] = rec.screenshotCell()
	values[slots.FieldTimestamp] = slots.FormatTimestamp(rec.SubmittedAt)
	values[slots.FieldVerified] = rec.Verified.String()
	values[slots.FieldStrikes] = rec.strikesCell()
	values[slots.FieldTenure] = rec.tenureCell()
	values[slots.FieldBlobID] = rec.BlobID

	rng := block.ValueRange(g.target.SheetName)
	if err := g.store.UpdateRange(ctx, g.target.SpreadsheetID, rng, column(values), WriteUserEntered); err != nil {
		return slot, fmt.Errorf("grid: write %s: %w", rng, err)
	}

	written := g.vacant(block)
	written.Exists = true
	written.BlobID = rec.BlobID
	written.Values = values
	return written, nil
}

func (g *GridLedger) Snapshot(ctx context.Context) ([]Slot, error) {
	rng := slots.GridValueColumnRange(g.target.SheetName)
	rows, err := g.store.GetRange(ctx, g.target.SpreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("grid: snapshot %s: %w", rng, err)
	}

	out := make([]Slot, 0, slots.DaysPerWeek)
	for day := 0; day < slots.DaysPerWeek; day++ {
		block, _ := slots.Grid(day)
		slot := g.vacant(block)
		values := make([]string, slots.GridFieldCount)
		for i := range values {
			idx := block.FieldRow(i) - 1
			if idx < len(rows) {
				values[i] = firstCell(rows[idx])
			}
		}
		slot.Values = values
		slot.BlobID = values[slots.FieldBlobID]
		slot.Exists = anyNonEmpty(values)
		out = append(out, slot)
	}
	return out, nil
}

func (g *GridLedger) ClearAll(ctx context.Context) error {
	ranges := make([]string, 0, slots.DaysPerWeek)
	for day := 0; day < slots.DaysPerWeek; day++ {
		block, _ := slots.Grid(day)
		ranges = append(ranges, block.ValueRange(g.target.SheetName))
	}
	if err := g.store.BatchClearRanges(ctx, g.target.SpreadsheetID, ranges); err != nil {
		return fmt.Errorf("grid: clear week: %w", err)
	}
	return nil
}

func (g *GridLedger) ClearSlots(ctx context.Context, targets []Slot) error {
	if len(targets) == 0 {
		return nil
	}
	ranges := make([]string, 0, len(targets))
	for _, slot := range targets {
		block, err := slots.Grid(slot.Day)
		if err != nil {
			return err
		}
		ranges = append(ranges, block.ValueRange(g.target.SheetName))
	}
	if err := g.store.BatchClearRanges(ctx, g.target.SpreadsheetID, ranges); err != nil {
		return fmt.Errorf("grid: clear slots: %w", err)
	}
	return nil
}

func (g *GridLedger) Prepare(ctx context.Context) error {
	rng := slots.GridLabelColumnRange(g.target.SheetName)
	rows, err := g.store.GetRange(ctx, g.target.SpreadsheetID, rng)
	if err != nil {
		return fmt.Errorf("grid: read labels of %q: %w", g.target.SheetName, err)
	}

	labels := slots.GridLabels()
	current := make([]string, len(rows))
	for i, row := range rows {
		current[i] = firstCell(row)
	}
	if equalStrings(current, labels) {
		return nil
	}

	if err := g.store.UpdateRange(ctx, g.target.SpreadsheetID, rng, column(labels), WriteRaw); err != nil {
		return fmt.Errorf("grid: write labels of %q: %w", g.target.SheetName, err)
	}
	return nil
}

// DayMarkColor is the fill a manual clear leaves on a day's header cell.
var DayMarkColor = Color{Red: 0.3, Green: 0.7, Blue: 0.3}

// MarkDays fills the header cell of each grid day block on target.
func MarkDays(ctx context.Context, h Highlighter, target Target, days []int) error {
	col, err := slots.ColumnIndex(slots.GridLabelColumn)
	if err != nil {
		return err
	}
	rows := make([]int, 0, len(days))
	for _, day := range days {
		block, err := slots.Grid(day)
		if err != nil {
			return err
		}
		rows = append(rows, block.HeaderRow)
	}
	if err := h.FillCells(ctx, target.SpreadsheetID, target.SheetName, col, rows, DayMarkColor); err != nil {
		return fmt.Errorf("grid: mark days on %q: %w", target.SheetName, err)
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
