package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/activity-tickets/src/reconcile"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
)

type fakeStream struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestPublisher_Record(t *testing.T) {
	fake := &fakeStream{}
	p := newPublisher(fake, "")

	err := p.Record(context.Background(), reconcile.Report{
		Outcome: reconcile.Outcome{
			OperationID: "op-1",
			Kind:        reconcile.KindReplaced,
			BlobID:      "blob-2",
			PriorBlobID: "blob-1",
			DayLabel:    "Tuesday",
			SubmittedAt: time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC),
		},
		GuildID: "g",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(fake.args) != 1 {
		t.Fatalf("expected one XADD, got %d", len(fake.args))
	}
	args := fake.args[0]
	if args.Stream != DefaultStream {
		t.Fatalf("expected default stream, got %s", args.Stream)
	}
	values := args.Values.(map[string]interface{})
	if values["kind"] != "replaced" || values["prior_blob"] != "blob-1" || values["submitted_at"] != "2025-06-10T14:30:00Z" {
		t.Fatalf("unexpected values %v", values)
	}
	if _, ok := values["error"]; ok {
		t.Fatal("expected no error field on success")
	}
}

func TestPublisher_SweepAndErrors(t *testing.T) {
	fake := &fakeStream{err: errors.New("connection refused")}
	p := newPublisher(fake, "custom")

	err := p.PublishSweep(context.Background(), reset.SweepResult{
		Target:  records.Target{SpreadsheetID: "s", SheetName: "Sheet1"},
		Day:     -1,
		Deleted: []string{"a", "b"},
	})
	if err == nil {
		t.Fatal("expected XADD error to surface")
	}
	values := fake.args[0].Values.(map[string]interface{})
	if fake.args[0].Stream != "custom" || values["deleted"] != "a,b" || values["type"] != "reset" {
		t.Fatalf("unexpected sweep event %v", values)
	}
}
