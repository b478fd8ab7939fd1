package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/activity-tickets/src/slots"
)

// Verification is the admin review state of a record.
type Verification int

const (
	VerifyUnset Verification = iota
	VerifyVerified
	VerifyFlagged
)

// String renders the verification cell; unset renders blank.
func (v Verification) String() string {
	switch v {
	case VerifyVerified:
		return "Verified"
	case VerifyFlagged:
		return "Flagged"
	default:
		return ""
	}
}

// ParseVerification reads a verification cell as admins tend to fill it in.
func ParseVerification(cell string) Verification {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "":
		return VerifyUnset
	case "verified", "yes", "y", "true", "✅", "x":
		return VerifyVerified
	default:
		return VerifyFlagged
	}
}

// Record is one submission for a submitter and day.
type Record struct {
	SubmitterID string
	Tag         string
	DisplayName string
	BlobID      string
	BlobLink    string
	SubmittedAt time.Time
	Verified    Verification
	Strikes     int
	Tenure      time.Duration
	ChannelName string
}

func (r Record) screenshotCell() string {
	if r.BlobLink == "" {
		return ""
	}
	return slots.HyperlinkFormula(r.BlobLink, slots.ScreenshotLabel)
}

func (r Record) strikesCell() string {
	if r.Strikes <= 0 {
		return ""
	}
	return strconv.Itoa(r.Strikes)
}

func (r Record) tenureCell() string {
	if r.Tenure <= 0 {
		return ""
	}
	return slots.FormatDuration(r.Tenure, true)
}

// SlotKey is the addressing input for a submission: who and which UTC day.
type SlotKey struct {
	Tag  string
	Day  int
	Date string
}

// KeyFor derives the key for tag at now. now must be captured once per
// operation so lookup and write agree across a day boundary.
func KeyFor(tag string, now time.Time) SlotKey {
	return SlotKey{
		Tag:  tag,
		Day:  slots.DayIndex(now),
		Date: slots.FormatDate(now),
	}
}

// Slot is a resolved record coordinate and what currently occupies it.
type Slot struct {
	Coordinate string
	Day        int
	DayLabel   string
	Date       string
	Row        int
	Exists     bool
	BlobID     string
	Values     []string

	// Relocated is set by a Write that found an existing row the caller's
	// slot did not know about. Displaced is that row's former blob id.
	Relocated bool
	Displaced string
}
