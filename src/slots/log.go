package slots

import (
	"strings"
	"time"
)

// Log layout: a header row followed by one row per (submitter, date).
const (
	LogColTag = iota
	LogColDisplayName
	LogColScreenshot
	LogColTimestamp
	LogColVerified
	LogColStrikes
	LogColTenure
	LogColChannel
	LogColBlobID
	LogColumnCount
)

// LogFirstDataRow is the first sheet row below the header.
const LogFirstDataRow = 2

// LogHeaders are the expected header cells of the log layout.
var LogHeaders = [LogColumnCount]string{
	"Discord Tag",
	"Player Display Name",
	"Screenshot",
	"Timestamp (UTC)",
	"Verified",
	"Strikes",
	"Time in Server",
	"Ticket Channel Name",
	"Drive File ID",
}

// LogKey identifies the row of a submitter for one UTC date.
type LogKey struct {
	Tag  string
	Date string
}

// NewLogKey builds the row key for tag at now.
func NewLogKey(tag string, now time.Time) LogKey {
	return LogKey{Tag: tag, Date: FormatDate(now)}
}

func lastLogColumn() string {
	return ColumnLetter(LogColumnCount - 1)
}

// LogHeaderRange covers the header row.
func LogHeaderRange(table string) string {
	return Span(table, "A", 1, lastLogColumn(), 1)
}

// LogDataRange covers every data row.
func LogDataRange(table string) string {
	return Span(table, "A", LogFirstDataRow, lastLogColumn(), 0)
}

// LogRowRange covers a single data row.
func LogRowRange(table string, row int) string {
	return Span(table, "A", row, lastLogColumn(), row)
}

// MatchLogRow scans rows read from LogDataRange and returns the sheet row and
// stored Drive file id of the first row matching key. The timestamp column is
// matched by its date prefix.
func MatchLogRow(rows [][]string, key LogKey) (row int, blobID string, ok bool) {
	if key.Tag == "" || key.Date == "" {
		return 0, "", false
	}
	for i, cells := range rows {
		if cellAt(cells, LogColTag) != key.Tag {
			continue
		}
		if !strings.HasPrefix(cellAt(cells, LogColTimestamp), key.Date) {
			continue
		}
		return i + LogFirstDataRow, cellAt(cells, LogColBlobID), true
	}
	return 0, "", false
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
