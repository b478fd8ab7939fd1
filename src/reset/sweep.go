// Package reset clears the weekly record table and deletes every blob it
// referenced.
package reset

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stake-plus/activity-tickets/src/lock"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/slots"
)

// SweepResult summarises one sweep of a target.
type SweepResult struct {
	Target   records.Target
	Day      int // -1 for a full-week sweep
	Cleared  int
	BlobIDs  []string
	Deleted  []string
	Failures map[string]error
	Err      error
}

// OK reports whether the table was cleared. Individual blob delete failures
// do not make a sweep fail.
func (r SweepResult) OK() bool {
	return r.Err == nil
}

// Observer is told about every finished sweep.
type Observer interface {
	PublishSweep(ctx context.Context, res SweepResult) error
}

// Sweeper runs the reset sequence: read, clear in one batch, delete blobs.
type Sweeper struct {
	ledgers   records.LedgerFactory
	blobs     records.BlobStore
	locks     *lock.Striped
	clock     func() time.Time
	observers []Observer
}

// NewSweeper builds a Sweeper. locks should be the reconciler's lock set so
// a sweep never interleaves with a submission.
func NewSweeper(ledgers records.LedgerFactory, blobs records.BlobStore, locks *lock.Striped, clock func() time.Time) *Sweeper {
	if locks == nil {
		locks = lock.New(0)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{ledgers: ledgers, blobs: blobs, locks: locks, clock: clock}
}

// Observe registers observers. Call before the first sweep.
func (s *Sweeper) Observe(obs ...Observer) {
	s.observers = append(s.observers, obs...)
}

// Sweep blanks every value field of target and deletes every blob the
// fields referenced. Running it twice is harmless.
func (s *Sweeper) Sweep(ctx context.Context, target records.Target) SweepResult {
	return s.run(ctx, target, -1)
}

// SweepDay does the same for one day of the current week.
func (s *Sweeper) SweepDay(ctx context.Context, target records.Target, day int) SweepResult {
	if !slots.ValidDay(day) {
		return SweepResult{Target: target, Day: day, Err: fmt.Errorf("reset: day %d out of range", day)}
	}
	return s.run(ctx, target, day)
}

func (s *Sweeper) run(ctx context.Context, target records.Target, day int) SweepResult {
	res := s.sweep(ctx, target, day)
	notifyCtx := context.WithoutCancel(ctx)
	for _, obs := range s.observers {
		if err := obs.PublishSweep(notifyCtx, res); err != nil {
			log.Printf("reset: observer failed for %s: %v", target.Key(), err)
		}
	}
	return res
}

func (s *Sweeper) sweep(ctx context.Context, target records.Target, day int) SweepResult {
	res := SweepResult{Target: target, Day: day, Failures: make(map[string]error)}
	ledger := s.ledgers(target)

	release := s.locks.LockAll()
	defer release()

	// Blob ids are only discoverable before the clear.
	snapshot, err := ledger.Snapshot(ctx)
	if err != nil {
		res.Err = fmt.Errorf("reset: snapshot %s: %w", target.Key(), err)
		log.Printf("reset: %v", res.Err)
		return res
	}

	selected := snapshot
	if day >= 0 {
		selected = filterDay(snapshot, day, slots.FormatDate(slots.DateOfDay(s.clock(), day)))
	}

	seen := make(map[string]bool)
	for _, slot := range selected {
		if slot.Exists {
			res.Cleared++
		}
		if slot.BlobID != "" && !seen[slot.BlobID] {
			seen[slot.BlobID] = true
			res.BlobIDs = append(res.BlobIDs, slot.BlobID)
		}
	}

	if day >= 0 {
		err = ledger.ClearSlots(ctx, selected)
	} else {
		err = ledger.ClearAll(ctx)
	}
	if err != nil {
		res.Err = fmt.Errorf("reset: clear %s: %w", target.Key(), err)
		log.Printf("reset: %v", res.Err)
		return res
	}

	delCtx := context.WithoutCancel(ctx)
	for _, id := range res.BlobIDs {
		if err := s.blobs.DeleteFile(delCtx, id); err != nil {
			res.Failures[id] = err
			log.Printf("reset: deleting blob %s from %s failed: %v", id, target.Key(), err)
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}

	log.Printf("reset: cleared %d record(s) on %s, deleted %d/%d blob(s)",
		res.Cleared, target.Key(), len(res.Deleted), len(res.BlobIDs))
	return res
}

// filterDay keeps the slots of one day. Grid slots carry their day directly;
// log rows are matched by the date that day has in the current week.
func filterDay(all []records.Slot, day int, date string) []records.Slot {
	var out []records.Slot
	for _, slot := range all {
		if slot.Day != day {
			continue
		}
		if slot.Date != "" && slot.Date != date {
			continue
		}
		out = append(out, slot)
	}
	return out
}
