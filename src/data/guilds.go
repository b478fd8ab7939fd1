package data

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stake-plus/activity-tickets/src/records"
)

// ErrGuildNotConfigured is returned for guilds that never ran /setup.
var ErrGuildNotConfigured = errors.New("data: guild not configured")

// GuildStore persists guild configuration.
type GuildStore struct {
	db *gorm.DB
}

// NewGuildStore wraps db.
func NewGuildStore(db *gorm.DB) *GuildStore {
	return &GuildStore{db: db}
}

// Get loads a guild's configuration.
func (s *GuildStore) Get(ctx context.Context, guildID string) (*GuildConfig, error) {
	var cfg GuildConfig
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGuildNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("data: load guild %s: %w", guildID, err)
	}
	return &cfg, nil
}

// Save inserts or replaces a guild's configuration.
func (s *GuildStore) Save(ctx context.Context, cfg *GuildConfig) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		UpdateAll: true,
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("data: save guild %s: %w", cfg.GuildID, err)
	}
	return nil
}

// List returns every configured guild.
func (s *GuildStore) List(ctx context.Context) ([]GuildConfig, error) {
	var cfgs []GuildConfig
	if err := s.db.WithContext(ctx).Order("guild_id").Find(&cfgs).Error; err != nil {
		return nil, fmt.Errorf("data: list guilds: %w", err)
	}
	return cfgs, nil
}

// Targets lists the record target of every guild plus def, for the weekly
// sweep. Duplicates are left to the caller.
func (s *GuildStore) Targets(ctx context.Context, def records.Target) ([]records.Target, error) {
	cfgs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]records.Target, 0, len(cfgs)+1)
	targets = append(targets, def)
	for i := range cfgs {
		targets = append(targets, cfgs[i].Target(def))
	}
	return targets, nil
}
