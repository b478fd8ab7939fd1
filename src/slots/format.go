package slots

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "01-02-06"
	minuteLayout    = "01-02-06 15:04"
	secondLayout    = "01-02-06 15:04:05"
	timestampSuffix = " UTC"

	// ScreenshotLabel is the visible text of the screenshot hyperlink.
	ScreenshotLabel = "View Screenshot"
)

// FormatTimestamp renders t as MM-DD-YY HH:mm UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(minuteLayout) + timestampSuffix
}

// FormatTimestampSeconds renders t as MM-DD-YY HH:mm:ss UTC.
func FormatTimestampSeconds(t time.Time) string {
	return t.UTC().Format(secondLayout) + timestampSuffix
}

// FormatDate renders t as MM-DD-YY; it is the same-day match key.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDatePrefix parses the MM-DD-YY prefix of a timestamp cell.
func ParseDatePrefix(cell string) (time.Time, bool) {
	if len(cell) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, cell[:len(dateLayout)], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDuration renders d as "1d 2h 3m 4s", or in the short form the sheet
// uses for tenure ("1d 2h", "2h 3m", "3m 4s", "4s"). Negative durations
// render as zero.
func FormatDuration(d time.Duration, short bool) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if !short {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// HyperlinkFormula builds the screenshot cell value. Quotes inside the link
// are percent-encoded so they cannot terminate the formula string.
func HyperlinkFormula(link, label string) string {
	safeLink := strings.ReplaceAll(link, `"`, "%22")
	safeLabel := strings.ReplaceAll(label, `"`, `""`)
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, safeLink, safeLabel)
}
