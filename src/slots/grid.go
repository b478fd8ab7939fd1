package slots

import "fmt"

// Grid layout: column A holds labels, column B holds values, seven blocks of
// eight rows each (a day-label row followed by the sub-field rows).
const (
	GridLabelColumn = "A"
	GridValueColumn = "B"
	GridFieldCount  = 7
	GridRowsPerDay  = 1 + GridFieldCount
	GridTotalRows   = DaysPerWeek * GridRowsPerDay
)

// Sub-field offsets within a day block.
const (
	FieldDisplayName = iota
	FieldScreenshot
	FieldTimestamp
	FieldVerified
	FieldStrikes
	FieldTenure
	FieldBlobID
)

// GridFields are the sub-field labels of a day block, in row order.
var GridFields = [GridFieldCount]string{
	"Player Display Name",
	"Screenshot",
	"Timestamp (UTC)",
	"Verified",
	"Strikes",
	"Time in Server",
	"Drive File ID",
}

// GridBlock addresses one day in the grid layout.
type GridBlock struct {
	Day       int
	HeaderRow int
	FirstRow  int
	LastRow   int
}

// Grid returns the block for day. Day i occupies rows [i*8+1 .. i*8+8].
func Grid(day int) (GridBlock, error) {
	if !ValidDay(day) {
		return GridBlock{}, fmt.Errorf("slots: day %d out of range", day)
	}
	header := day*GridRowsPerDay + 1
	return GridBlock{
		Day:       day,
		HeaderRow: header,
		FirstRow:  header + 1,
		LastRow:   header + GridFieldCount,
	}, nil
}

// FieldRow returns the sheet row of a sub-field.
func (b GridBlock) FieldRow(field int) int {
	return b.FirstRow + field
}

// BlobIDRow returns the sheet row holding the Drive file id.
func (b GridBlock) BlobIDRow() int {
	return b.FieldRow(FieldBlobID)
}

// ValueRange is the range of every value cell of the block.
func (b GridBlock) ValueRange(table string) string {
	return Span(table, GridValueColumn, b.FirstRow, GridValueColumn, b.LastRow)
}

// BlobIDCell is the single cell holding the Drive file id.
func (b GridBlock) BlobIDCell(table string) string {
	return Cell(table, GridValueColumn, b.BlobIDRow())
}

// GridValueColumnRange covers every value cell of the week.
func GridValueColumnRange(table string) string {
	return Span(table, GridValueColumn, 1, GridValueColumn, GridTotalRows)
}

// GridLabelColumnRange covers every label cell of the week.
func GridLabelColumnRange(table string) string {
	return Span(table, GridLabelColumn, 1, GridLabelColumn, GridTotalRows)
}

// GridLabels returns the expected contents of the label column, top to bottom.
func GridLabels() []string {
	labels := make([]string, 0, GridTotalRows)
	for day := 0; day < DaysPerWeek; day++ {
		labels = append(labels, DayNames[day])
		labels = append(labels, GridFields[:]...)
	}
	return labels
}
