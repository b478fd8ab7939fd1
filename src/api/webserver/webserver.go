// Package webserver serves the admin HTTP API for weekly records.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
)

// GuildLookup resolves a guild's stored configuration.
type GuildLookup interface {
	Get(ctx context.Context, guildID string) (*data.GuildConfig, error)
}

// Resetter clears records and their screenshots.
type Resetter interface {
	Sweep(ctx context.Context, target records.Target) reset.SweepResult
	SweepDay(ctx context.Context, target records.Target, day int) reset.SweepResult
}

// AuditLog lists recent reconcile attempts.
type AuditLog interface {
	Recent(ctx context.Context, guildID string, limit int) ([]data.SubmissionAudit, error)
}

// Config holds the listener settings.
type Config struct {
	Listen  string
	Secret  []byte
	Origins []string

	// RequestsPerMinute caps calls per token subject. Zero uses 60.
	RequestsPerMinute int
}

// Deps are the stores the handlers read and reset.
type Deps struct {
	Guilds  GuildLookup
	Ledgers records.LedgerFactory
	Resets  Resetter
	Audit   AuditLog
	Default records.Target
}

// New builds the gin engine with every route attached.
func New(cfg Config, deps Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, deps)
	return g
}

// Module runs the API as a managed action module.
type Module struct {
	cfg   Config
	srv   *http.Server
	errCh chan error
}

// NewModule prepares the server without listening.
func NewModule(cfg Config, deps Deps) (*Module, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("webserver: JWT secret is required")
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	return &Module{
		cfg: cfg,
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           New(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		errCh: make(chan error, 1),
	}, nil
}

func (m *Module) Name() string { return "admin-api" }

func (m *Module) Start(ctx context.Context) error {
	go func() {
		log.Printf("webserver: listening on %s", m.cfg.Listen)
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("webserver: %v", err)
			m.errCh <- err
		}
	}()

	// Surface immediate bind failures to the manager.
	select {
	case err := <-m.errCh:
		return fmt.Errorf("webserver: listen %s: %w", m.cfg.Listen, err)
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Module) Stop(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("webserver: shutdown: %v", err)
	}
}
