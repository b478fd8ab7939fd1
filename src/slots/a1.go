package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// A1Range is a parsed sheet-style range such as 'Sheet1'!B2:B8.
// Columns are zero-based, rows one-based. EndCol -1 and EndRow 0 mean the
// range is open in that direction.
type A1Range struct {
	Table    string
	StartCol int
	EndCol   int
	StartRow int
	EndRow   int
}

// QuoteTable quotes a sheet name for use in A1 notation.
func QuoteTable(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnLetter converts a zero-based column index into its letters (0 -> A, 26 -> AA).
func ColumnLetter(idx int) string {
	if idx < 0 {
		return ""
	}
	var out []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
	}
	return string(out)
}

// ColumnIndex converts column letters into a zero-based index.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("slots: empty column")
	}
	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("slots: invalid column %q", letters)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1, nil
}

// Cell builds a single-cell range, e.g. 'Sheet1'!B9.
func Cell(table, col string, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteTable(table), col, row)
}

// Span builds a rectangular range. A toRow of 0 leaves the range open-ended
// downwards, e.g. 'Sheet1'!A2:I.
func Span(table, fromCol string, fromRow int, toCol string, toRow int) string {
	if toRow <= 0 {
		return fmt.Sprintf("%s!%s%d:%s", QuoteTable(table), fromCol, fromRow, toCol)
	}
	return fmt.Sprintf("%s!%s%d:%s%d", QuoteTable(table), fromCol, fromRow, toCol, toRow)
}

// ParseA1 parses the subset of A1 notation this package produces, plus a
// bare (optionally quoted) table name meaning the whole table.
func ParseA1(spec string) (A1Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return A1Range{}, fmt.Errorf("slots: empty range")
	}

	table, cells := spec, ""
	if idx := strings.LastIndex(spec, "!"); idx >= 0 {
		table, cells = spec[:idx], spec[idx+1:]
	}
	table = unquoteTable(table)
	if table == "" {
		return A1Range{}, fmt.Errorf("slots: range %q has no table", spec)
	}

	rng := A1Range{Table: table, StartCol: 0, EndCol: -1, StartRow: 1, EndRow: 0}
	if cells == "" {
		return rng, nil
	}

	from, to, hasEnd := strings.Cut(cells, ":")
	startCol, startRow, err := parseCellRef(from)
	if err != nil {
		return A1Range{}, err
	}
	rng.StartCol = startCol
	if startRow > 0 {
		rng.StartRow = startRow
	}

	if !hasEnd {
		rng.EndCol = startCol
		rng.EndRow = startRow
		return rng, nil
	}

	endCol, endRow, err := parseCellRef(to)
	if err != nil {
		return A1Range{}, err
	}
	if endCol < startCol || (endRow > 0 && endRow < rng.StartRow) {
		return A1Range{}, fmt.Errorf("slots: inverted range %q", spec)
	}
	rng.EndCol = endCol
	rng.EndRow = endRow
	return rng, nil
}

func unquoteTable(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") {
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}
	return raw
}

func parseCellRef(ref string) (col, row int, err error) {
	ref = strings.TrimSpace(ref)
	split := strings.IndexFunc(ref, func(r rune) bool { return r >= '0' && r <= '9' })
	letters, digits := ref, ""
	if split >= 0 {
		letters, digits = ref[:split], ref[split:]
	}
	col, err = ColumnIndex(letters)
	if err != nil {
		return 0, 0, err
	}
	if digits == "" {
		return col, 0, nil
	}
	row, err = strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("slots: invalid row in %q", ref)
	}
	return col, row, nil
}
