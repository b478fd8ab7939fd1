// Package events publishes submission outcomes and sweep results to a Redis
// stream for dashboards and other consumers.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/activity-tickets/src/reconcile"
	"github.com/stake-plus/activity-tickets/src/reset"
)

// DefaultStream is the stream events are appended to.
const DefaultStream = "tickets.submissions"

// maxLen caps the stream; trimming is approximate.
const maxLen = 10000

var _ reconcile.Sink = (*Publisher)(nil)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Connect parses url and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("events: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("events: ping redis: %w", err)
	}
	return rdb, nil
}

// Publisher appends events to a stream.
type Publisher struct {
	rdb    streamAdder
	stream string
}

// NewPublisher wraps a Redis client. An empty stream means DefaultStream.
func NewPublisher(rdb redis.Cmdable, stream string) *Publisher {
	return newPublisher(rdb, stream)
}

func newPublisher(rdb streamAdder, stream string) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{rdb: rdb, stream: stream}
}

// Record implements reconcile.Sink.
func (p *Publisher) Record(ctx context.Context, report reconcile.Report) error {
	values := map[string]interface{}{
		"type":         "submission",
		"operation_id": report.OperationID,
		"kind":         string(report.Kind),
		"guild_id":     report.GuildID,
		"submitter_id": report.SubmitterID,
		"tag":          report.Tag,
		"sheet":        report.Sheet,
		"day":          report.DayLabel,
		"coordinate":   report.Coordinate,
		"blob_id":      report.BlobID,
		"prior_blob":   report.PriorBlobID,
		"digest":       report.ImageDigest,
		"submitted_at": report.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if report.Err != nil {
		values["error"] = report.Err.Error()
	}
	return p.publish(ctx, values)
}

// PublishSweep announces a reset sweep.
func (p *Publisher) PublishSweep(ctx context.Context, res reset.SweepResult) error {
	values := map[string]interface{}{
		"type":    "reset",
		"sheet":   res.Target.Key(),
		"day":     res.Day,
		"cleared": res.Cleared,
		"deleted": strings.Join(res.Deleted, ","),
		"failed":  len(res.Failures),
		"at":      time.Now().UTC().Format(time.RFC3339),
	}
	if res.Err != nil {
		values["error"] = res.Err.Error()
	}
	return p.publish(ctx, values)
}

func (p *Publisher) publish(ctx context.Context, values map[string]interface{}) error {
	_, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("events: xadd %s: %w", p.stream, err)
	}
	return nil
}
