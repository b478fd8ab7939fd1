package records

import (
	"context"
	"fmt"

	"github.com/stake-plus/activity-tickets/src/slots"
)

var _ Ledger = (*LogLedger)(nil)

// LogLedger stores a row per (submitter, UTC date) below a header row.
// Existing rows are found by a linear scan over tag and date prefix.
type LogLedger struct {
	store  Store
	target Target
}

func (l *LogLedger) Layout() string { return LayoutLog }

func (l *LogLedger) Target() Target { return l.target }

func (l *LogLedger) Address(key SlotKey) string {
	return fmt.Sprintf("%s#%s@%s", l.target.Key(), key.Tag, key.Date)
}

func (l *LogLedger) Lookup(ctx context.Context, key SlotKey) (Slot, error) {
	slot := Slot{
		Coordinate: slots.LogDataRange(l.target.SheetName),
		Day:        key.Day,
		DayLabel:   slots.DayLabel(key.Day),
		Date:       key.Date,
	}

	rows, err := l.store.GetRange(ctx, l.target.SpreadsheetID, slot.Coordinate)
	if err != nil {
		return slot, fmt.Errorf("log: read %s: %w", slot.Coordinate, err)
	}

	row, blobID, ok := slots.MatchLogRow(rows, slots.LogKey{Tag: key.Tag, Date: key.Date})
	if !ok {
		return slot, nil
	}
	slot.Row = row
	slot.Coordinate = slots.LogRowRange(l.target.SheetName, row)
	slot.Exists = true
	slot.BlobID = blobID
	slot.Values = rows[row-slots.LogFirstDataRow]
	return slot, nil
}

func (l *LogLedger) Write(ctx context.Context, slot Slot, rec Record) (Slot, error) {
	values := make([]string, slots.LogColumnCount)
	values[slots.LogColTag] = rec.Tag
	values[slots.LogColDisplayName] = rec.DisplayName
	values[slots.LogColScreenshot] = rec.screenshotCell()
	values[slots.LogColTimestamp] = slots.FormatTimestamp(rec.SubmittedAt)
	values[slots.LogColVerified] = rec.Verified.String()
	values[slots.LogColStrikes] = rec.strikesCell()
	values[slots.LogColTenure] = rec.tenureCell()
	values[slots.LogColChannel] = rec.ChannelName
	values[slots.LogColBlobID] = rec.BlobID

	written := slot
	written.Exists = true
	written.BlobID = rec.BlobID
	written.Values = values

	row := slot.Row
	if row < slots.LogFirstDataRow {
		found, prior, err := l.locate(ctx, rec)
		if err != nil {
			return slot, err
		}
		if found > 0 {
			row = found
			written.Row = found
			written.Displaced = prior
			written.Relocated = true
		}
	}

	if row >= slots.LogFirstDataRow {
		rng := slots.LogRowRange(l.target.SheetName, row)
		cells := [][]interface{}{toInterfaces(values)}
		if err := l.store.UpdateRange(ctx, l.target.SpreadsheetID, rng, cells, WriteUserEntered); err != nil {
			return slot, fmt.Errorf("log: update %s: %w", rng, err)
		}
		written.Coordinate = rng
		return written, nil
	}

	if err := l.store.AppendRow(ctx, l.target.SpreadsheetID, l.target.SheetName, toInterfaces(values)); err != nil {
		return slot, fmt.Errorf("log: append to %q: %w", l.target.SheetName, err)
	}
	written.Coordinate = slots.LogDataRange(l.target.SheetName)
	return written, nil
}

// locate scans for the submitter's row on the record's date. A row written
// since Lookup ran, or missed by a failed Lookup, is updated in place rather
// than appended a second time.
func (l *LogLedger) locate(ctx context.Context, rec Record) (int, string, error) {
	rng := slots.LogDataRange(l.target.SheetName)
	rows, err := l.store.GetRange(ctx, l.target.SpreadsheetID, rng)
	if err != nil {
		return 0, "", fmt.Errorf("log: locate row in %s: %w", rng, err)
	}
	key := slots.LogKey{Tag: rec.Tag, Date: slots.FormatDate(rec.SubmittedAt)}
	row, blobID, ok := slots.MatchLogRow(rows, key)
	if !ok {
		return 0, "", nil
	}
	return row, blobID, nil
}

func (l *LogLedger) Snapshot(ctx context.Context) ([]Slot, error) {
	rng := slots.LogDataRange(l.target.SheetName)
	rows, err := l.store.GetRange(ctx, l.target.SpreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("log: snapshot %s: %w", rng, err)
	}

	var out []Slot
	for i, cells := range rows {
		if !anyNonEmpty(cells) {
			continue
		}
		row := i + slots.LogFirstDataRow
		slot := Slot{
			Coordinate: slots.LogRowRange(l.target.SheetName, row),
			Day:        -1,
			Row:        row,
			Exists:     true,
			Values:     cells,
		}
		if len(cells) > slots.LogColBlobID {
			slot.BlobID = cells[slots.LogColBlobID]
		}
		if len(cells) > slots.LogColTimestamp {
			if date, ok := slots.ParseDatePrefix(cells[slots.LogColTimestamp]); ok {
				slot.Day = slots.DayIndex(date)
				slot.DayLabel = slots.DayLabel(slot.Day)
				slot.Date = slots.FormatDate(date)
			}
		}
		out = append(out, slot)
	}
	return out, nil
}

func (l *LogLedger) ClearAll(ctx context.Context) error {
	rng := slots.LogDataRange(l.target.SheetName)
	if err := l.store.BatchClearRanges(ctx, l.target.SpreadsheetID, []string{rng}); err != nil {
		return fmt.Errorf("log: clear %s: %w", rng, err)
	}
	return nil
}

func (l *LogLedger) ClearSlots(ctx context.Context, targets []Slot) error {
	ranges := make([]string, 0, len(targets))
	for _, slot := range targets {
		if slot.Row < slots.LogFirstDataRow {
			continue
		}
		ranges = append(ranges, slots.LogRowRange(l.target.SheetName, slot.Row))
	}
	if len(ranges) == 0 {
		return nil
	}
	if err := l.store.BatchClearRanges(ctx, l.target.SpreadsheetID, ranges); err != nil {
		return fmt.Errorf("log: clear rows: %w", err)
	}
	return nil
}

func (l *LogLedger) Prepare(ctx context.Context) error {
	rng := slots.LogHeaderRange(l.target.SheetName)
	rows, err := l.store.GetRange(ctx, l.target.SpreadsheetID, rng)
	if err != nil {
		return fmt.Errorf("log: read headers of %q: %w", l.target.SheetName, err)
	}

	var current []string
	if len(rows) > 0 {
		current = rows[0]
	}
	if equalStrings(current, slots.LogHeaders[:]) {
		return nil
	}

	header := [][]interface{}{toInterfaces(slots.LogHeaders[:])}
	if err := l.store.UpdateRange(ctx, l.target.SpreadsheetID, rng, header, WriteRaw); err != nil {
		return fmt.Errorf("log: write headers of %q: %w", l.target.SheetName, err)
	}
	return nil
}
