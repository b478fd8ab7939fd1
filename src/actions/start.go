package actions

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/stake-plus/activity-tickets/src/actions/core"
	ticketsmodule "github.com/stake-plus/activity-tickets/src/actions/tickets"
	"github.com/stake-plus/activity-tickets/src/api/webserver"
	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/events"
	"github.com/stake-plus/activity-tickets/src/lock"
	"github.com/stake-plus/activity-tickets/src/reconcile"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
)

// StartAll builds the stores, the reconciler and every enabled module, then
// starts the manager.
func StartAll(ctx context.Context, db *gorm.DB) (*Manager, error) {
	cfg := sharedconfig.LoadTicketsConfig(db)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("actions: invalid configuration: %w", err)
	}
	mgr := NewManager()

	storage, err := OpenStorage(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	ledgers, err := records.NewLedgerFactory(cfg.Layout, storage.Records)
	if err != nil {
		return nil, fmt.Errorf("actions: ledger: %w", err)
	}

	guilds := data.NewGuildStore(db)
	targets, err := guilds.Targets(ctx, cfg.Target)
	if err != nil {
		log.Printf("actions: listing guild targets: %v", err)
	}
	if err := PrepareTargets(ctx, ledgers, cfg.Target, targets); err != nil {
		return nil, err
	}

	audit := data.NewAuditStore(db)
	sinks := []reconcile.Sink{audit}
	var publisher *events.Publisher
	if cfg.RedisURL != "" {
		rdb, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
		publisher = events.NewPublisher(rdb, cfg.EventStream)
		sinks = append(sinks, publisher)
		// Registered first so it stops last.
		if err := mgr.Add(core.Closer{Label: "redis", Close: rdb.Close}); err != nil {
			return nil, err
		}
		log.Printf("actions: publishing events to redis stream %q", cfg.EventStream)
	} else {
		log.Printf("actions: redis disabled, events are only written to the audit table")
	}

	locks := lock.New(cfg.LockStripes)
	reconciler := reconcile.New(reconcile.Config{
		Ledgers: ledgers,
		Blobs:   storage.Blobs,
		Locks:   locks,
		Resizer: storage.Resizer,
		Sinks:   sinks,
	})
	sweeper := reset.NewSweeper(ledgers, storage.Blobs, locks, time.Now)
	if publisher != nil {
		sweeper.Observe(publisher)
	}

	ticketsMod, err := ticketsmodule.NewModule(&cfg, ticketsmodule.Dependencies{
		Guilds:  guilds,
		Records: reconciler,
		Resets:  sweeper,
		Marker:  storage.Marker,
	})
	if err != nil {
		return nil, fmt.Errorf("actions: init tickets module: %w", err)
	}
	if err := mgr.Add(ticketsMod); err != nil {
		return nil, fmt.Errorf("actions: add tickets module: %w", err)
	}

	if cfg.ResetEnabled {
		sched := reset.NewScheduler(sweeper, func(ctx context.Context) ([]records.Target, error) {
			return guilds.Targets(ctx, cfg.Target)
		}, cfg.ResetSpec, 0)
		if err := mgr.Add(sched); err != nil {
			return nil, fmt.Errorf("actions: add reset scheduler: %w", err)
		}
	} else {
		log.Printf("actions: weekly reset disabled via configuration")
	}

	if cfg.APIEnabled {
		apiMod, err := webserver.NewModule(webserver.Config{
			Listen:  cfg.APIListen,
			Secret:  []byte(cfg.APISecret),
			Origins: cfg.APIOrigins,
		}, webserver.Deps{
			Guilds:  guilds,
			Ledgers: ledgers,
			Resets:  sweeper,
			Audit:   audit,
			Default: cfg.Target,
		})
		if err != nil {
			return nil, fmt.Errorf("actions: init admin api: %w", err)
		}
		if err := mgr.Add(apiMod); err != nil {
			return nil, fmt.Errorf("actions: add admin api: %w", err)
		}
	} else {
		log.Printf("actions: admin API disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
