// Package memory provides in-process record and blob stores. They back the
// test suites and the local development mode that runs without Google
// credentials.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/slots"
)

var (
	_ records.Store       = (*Store)(nil)
	_ records.Resizer     = (*Store)(nil)
	_ records.Highlighter = (*Store)(nil)
)

// Store keeps tables as rows of cells keyed by spreadsheet id and table name.
// Reads trim trailing blank cells and rows the way the hosted service does.
type Store struct {
	mu     sync.Mutex
	tables map[string]map[string]*[][]string
	fills  map[string]records.Color

	FailGet    error
	FailUpdate error
	FailClear  error
	FailAppend error
	FailFill   error

	// FailGetOnce fails the next read only.
	FailGetOnce error

	Gets    int
	Updates int
	Clears  int
	Appends int
	Resizes int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]map[string]*[][]string),
		fills:  make(map[string]records.Color),
	}
}

// AddTable creates an empty table.
func (s *Store) AddTable(tableID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(tableID, name, true)
}

// Set writes a single cell, creating the table if needed.
func (s *Store) Set(tableID, name string, row, col int, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(tableID, name, true)
	*t = setCell(*t, row, col, value)
}

// Cell reads a single cell. Row is one-based, col zero-based.
func (s *Store) Cell(tableID, name string, row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(tableID, name, false)
	if t == nil || row < 1 || row > len(*t) {
		return ""
	}
	cells := (*t)[row-1]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Rows returns a copy of the table contents.
func (s *Store) Rows(tableID, name string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(tableID, name, false)
	if t == nil {
		return nil
	}
	out := make([][]string, len(*t))
	for i, row := range *t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (s *Store) table(tableID, name string, create bool) *[][]string {
	book, ok := s.tables[tableID]
	if !ok {
		if !create {
			return nil
		}
		book = make(map[string]*[][]string)
		s.tables[tableID] = book
	}
	t, ok := book[name]
	if !ok {
		if !create {
			return nil
		}
		t = new([][]string)
		book[name] = t
	}
	return t
}

func (s *Store) GetRange(ctx context.Context, tableID, rangeSpec string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++
	if err := s.FailGetOnce; err != nil {
		s.FailGetOnce = nil
		return nil, err
	}
	if s.FailGet != nil {
		return nil, s.FailGet
	}
	rng, t, err := s.resolve(tableID, rangeSpec)
	if err != nil {
		return nil, err
	}

	var out [][]string
	last := len(*t)
	if rng.EndRow > 0 && rng.EndRow < last {
		last = rng.EndRow
	}
	for r := rng.StartRow; r <= last; r++ {
		cells := (*t)[r-1]
		var row []string
		end := len(cells) - 1
		if rng.EndCol >= 0 && rng.EndCol < end {
			end = rng.EndCol
		}
		for c := rng.StartCol; c <= end; c++ {
			row = append(row, cells[c])
		}
		out = append(out, trimCells(row))
	}
	return trimRows(out), nil
}

func (s *Store) UpdateRange(ctx context.Context, tableID, rangeSpec string, values [][]interface{}, mode records.WriteMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates++
	if s.FailUpdate != nil {
		return s.FailUpdate
	}
	rng, t, err := s.resolve(tableID, rangeSpec)
	if err != nil {
		return err
	}
	for i, row := range values {
		for j, v := range row {
			*t = setCell(*t, rng.StartRow+i, rng.StartCol+j, fmt.Sprint(v))
		}
	}
	return nil
}

func (s *Store) BatchClearRanges(ctx context.Context, tableID string, rangeSpecs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clears++
	if s.FailClear != nil {
		return s.FailClear
	}
	for _, spec := range rangeSpecs {
		rng, t, err := s.resolve(tableID, spec)
		if err != nil {
			return err
		}
		for r := rng.StartRow; r <= len(*t); r++ {
			if rng.EndRow > 0 && r > rng.EndRow {
				break
			}
			cells := (*t)[r-1]
			for c := rng.StartCol; c < len(cells); c++ {
				if rng.EndCol >= 0 && c > rng.EndCol {
					break
				}
				cells[c] = ""
			}
		}
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, tableID, tableName string, values []interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Appends++
	if s.FailAppend != nil {
		return s.FailAppend
	}
	t := s.table(tableID, tableName, false)
	if t == nil {
		return fmt.Errorf("memory: table %q: %w", tableName, records.ErrNotFound)
	}

	next := 1
	for i, row := range *t {
		if len(trimCells(row)) > 0 {
			next = i + 2
		}
	}
	for j, v := range values {
		*t = setCell(*t, next, j, fmt.Sprint(v))
	}
	return nil
}

func (s *Store) AutoResizeColumns(ctx context.Context, tableID, tableName string, columns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resizes++
	if s.table(tableID, tableName, false) == nil {
		return fmt.Errorf("memory: table %q: %w", tableName, records.ErrNotFound)
	}
	return nil
}

func (s *Store) FillCells(ctx context.Context, tableID, tableName string, col int, rows []int, fill records.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFill != nil {
		return s.FailFill
	}
	if s.table(tableID, tableName, false) == nil {
		return fmt.Errorf("memory: table %q: %w", tableName, records.ErrNotFound)
	}
	for _, row := range rows {
		s.fills[fillKey(tableID, tableName, row, col)] = fill
	}
	return nil
}

// Fill returns the background set on a cell. Row is one-based, col zero-based.
func (s *Store) Fill(tableID, name string, row, col int) (records.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.fills[fillKey(tableID, name, row, col)]
	return c, ok
}

func fillKey(tableID, name string, row, col int) string {
	return fmt.Sprintf("%s/%s/%d/%d", tableID, name, row, col)
}

func (s *Store) resolve(tableID, rangeSpec string) (slots.A1Range, *[][]string, error) {
	rng, err := slots.ParseA1(rangeSpec)
	if err != nil {
		return slots.A1Range{}, nil, err
	}
	t := s.table(tableID, rng.Table, false)
	if t == nil {
		return slots.A1Range{}, nil, fmt.Errorf("memory: range %s: %w", rangeSpec, records.ErrNotFound)
	}
	return rng, t, nil
}

func setCell(rows [][]string, row, col int, value string) [][]string {
	for len(rows) < row {
		rows = append(rows, nil)
	}
	cells := rows[row-1]
	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value
	rows[row-1] = cells
	return rows
}

func trimCells(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	if end == 0 {
		return []string{}
	}
	return append([]string(nil), cells[:end]...)
}

func trimRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
