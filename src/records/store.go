// Package records holds the ports to the remote record and blob stores and
// the ledgers that lay submission records out on a sheet.
package records

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by adapters when a table, sheet or file is missing.
var ErrNotFound = errors.New("records: not found")

// WriteMode controls how the backing sheet interprets written values.
type WriteMode string

const (
	// WriteUserEntered parses values as if typed by a user, so formulas evaluate.
	WriteUserEntered WriteMode = "USER_ENTERED"
	// WriteRaw stores values verbatim.
	WriteRaw WriteMode = "RAW"
)

// Store is the tabular persistence service. Ranges use A1 notation,
// e.g. 'Sheet1'!B2:B8.
type Store interface {
	GetRange(ctx context.Context, tableID, rangeSpec string) ([][]string, error)
	UpdateRange(ctx context.Context, tableID, rangeSpec string, values [][]interface{}, mode WriteMode) error
	BatchClearRanges(ctx context.Context, tableID string, rangeSpecs []string) error
	AppendRow(ctx context.Context, tableID, tableName string, values []interface{}) error
}

// Resizer is implemented by stores that can fit column widths to content.
type Resizer interface {
	AutoResizeColumns(ctx context.Context, tableID, tableName string, columns int) error
}

// Color is an RGB fill with components in [0, 1].
type Color struct {
	Red, Green, Blue float64
}

// Highlighter fills the background of single cells in one column. Rows are
// one-based and col is zero-based.
type Highlighter interface {
	FillCells(ctx context.Context, tableID, tableName string, col int, rows []int, fill Color) error
}

// FileMetadata describes a file to create in the blob store.
type FileMetadata struct {
	Name           string
	ParentFolderID string
}

// StoredFile is a created blob.
type StoredFile struct {
	ID          string
	WebViewLink string
}

// BlobStore is the file hosting service.
type BlobStore interface {
	CreateFile(ctx context.Context, meta FileMetadata, content io.Reader, mimeType string) (*StoredFile, error)
	DeleteFile(ctx context.Context, id string) error
}

// Target names the sheet and folder a guild's submissions land in.
type Target struct {
	SpreadsheetID string
	SheetName     string
	FolderID      string
}

// Key identifies the target's table for locks and logs.
func (t Target) Key() string {
	return t.SpreadsheetID + "/" + t.SheetName
}

// Valid reports whether the target names a spreadsheet and a sheet.
func (t Target) Valid() bool {
	return t.SpreadsheetID != "" && t.SheetName != ""
}
