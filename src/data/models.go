package data

import (
	"strings"
	"time"

	"github.com/stake-plus/activity-tickets/src/records"
)

// Setting is a name/value row of the settings table.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

// GuildConfig is what /setup persists for a guild.
type GuildConfig struct {
	GuildID            string `gorm:"primaryKey;size:32"`
	GuildName          string `gorm:"size:100"`
	PromptChannelID    string `gorm:"size:32"`
	PromptMessageID    string `gorm:"size:32"`
	TicketCategoryID   string `gorm:"size:32"`
	TicketCategoryName string `gorm:"size:100"`
	AdminRoleIDs       string `gorm:"type:text"`
	ShutdownRoleID     string `gorm:"size:32"`
	ShutdownRoleName   string `gorm:"size:100"`
	SpreadsheetID      string `gorm:"size:128"`
	SheetName          string `gorm:"size:100"`
	DriveFolderID      string `gorm:"size:128"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AdminRoles returns the admin role ids.
func (g *GuildConfig) AdminRoles() []string {
	var out []string
	for _, id := range strings.Split(g.AdminRoleIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// SetAdminRoles stores role ids as a comma separated list.
func (g *GuildConfig) SetAdminRoles(ids []string) {
	g.AdminRoleIDs = strings.Join(ids, ",")
}

// Target returns the guild's record target, filling unset fields from def.
func (g *GuildConfig) Target(def records.Target) records.Target {
	t := def
	if g == nil {
		return t
	}
	if g.SpreadsheetID != "" {
		t.SpreadsheetID = g.SpreadsheetID
	}
	if g.SheetName != "" {
		t.SheetName = g.SheetName
	}
	if g.DriveFolderID != "" {
		t.FolderID = g.DriveFolderID
	}
	return t
}

// SubmissionAudit is one reconcile attempt.
type SubmissionAudit struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OperationID string    `gorm:"size:36;not null;uniqueIndex"`
	GuildID     string    `gorm:"size:32;index"`
	SubmitterID string    `gorm:"size:32;index"`
	Tag         string    `gorm:"size:100"`
	Sheet       string    `gorm:"size:255"`
	Coordinate  string    `gorm:"size:255"`
	DayLabel    string    `gorm:"size:16"`
	Kind        string    `gorm:"size:16;not null"`
	BlobID      string    `gorm:"size:128"`
	PriorBlobID string    `gorm:"size:128"`
	ImageDigest string    `gorm:"size:64"`
	ImageBytes  int       `gorm:"not null;default:0"`
	Error       string    `gorm:"type:text"`
	SubmittedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
}
