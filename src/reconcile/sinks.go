package reconcile

import (
	"context"
	"encoding/hex"
	"log"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Report is what sinks receive after every reconcile attempt.
type Report struct {
	Outcome
	GuildID     string
	SubmitterID string
	Tag         string
	Sheet       string
	ImageDigest string
	ImageBytes  int
}

// Sink observes reconcile reports. Sinks are best-effort: an error is logged
// and never changes the Outcome.
type Sink interface {
	Record(ctx context.Context, report Report) error
}

func (r *Reconciler) report(ctx context.Context, sub Submission, out Outcome) {
	if len(r.sinks) == 0 {
		return
	}
	rep := Report{
		Outcome:     out,
		GuildID:     sub.GuildID,
		SubmitterID: sub.SubmitterID,
		Tag:         sub.Tag,
		Sheet:       sub.Target.Key(),
		ImageDigest: Digest(sub.Image),
		ImageBytes:  len(sub.Image),
	}
	ctx = context.WithoutCancel(ctx)
	for _, sink := range r.sinks {
		if err := sink.Record(ctx, rep); err != nil {
			log.Printf("reconcile: %s: sink %T failed: %v", out.OperationID, sink, err)
		}
	}
}

// Digest is the hex BLAKE2b-256 of an image, or "" for no data.
func Digest(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CellText keeps user text verbatim apart from surrounding space. A cell
// never renders markup, so names like "<Kai>" are stored as typed. Leading
// formula characters are quoted so the sheet stores the value as text.
func CellText(s string) string {
	clean := strings.TrimSpace(s)
	if clean != "" && strings.ContainsRune("=+-@", rune(clean[0])) {
		clean = "'" + clean
	}
	return clean
}
