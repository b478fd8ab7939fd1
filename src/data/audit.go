package data

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stake-plus/activity-tickets/src/reconcile"
)

var _ reconcile.Sink = (*AuditStore)(nil)

// AuditStore keeps one row per reconcile attempt.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore wraps db.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record implements reconcile.Sink.
func (s *AuditStore) Record(ctx context.Context, report reconcile.Report) error {
	row := AuditRow(report)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("data: audit %s: %w", report.OperationID, err)
	}
	return nil
}

// Recent returns the latest audit rows of a guild, newest first.
func (s *AuditStore) Recent(ctx context.Context, guildID string, limit int) ([]SubmissionAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows []SubmissionAudit
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("data: recent audit for %s: %w", guildID, err)
	}
	return rows, nil
}

// AuditRow converts a reconcile report into its table row.
func AuditRow(report reconcile.Report) SubmissionAudit {
	row := SubmissionAudit{
		OperationID: report.OperationID,
		GuildID:     report.GuildID,
		SubmitterID: report.SubmitterID,
		Tag:         report.Tag,
		Sheet:       report.Sheet,
		Coordinate:  report.Coordinate,
		DayLabel:    report.DayLabel,
		Kind:        string(report.Kind),
		BlobID:      report.BlobID,
		PriorBlobID: report.PriorBlobID,
		ImageDigest: report.ImageDigest,
		ImageBytes:  report.ImageBytes,
		SubmittedAt: report.SubmittedAt,
	}
	if report.Err != nil {
		row.Error = report.Err.Error()
	}
	return row
}
