package actions

import (
	"context"
	"fmt"
	"log"

	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	"github.com/stake-plus/activity-tickets/src/google"
	"github.com/stake-plus/activity-tickets/src/google/drive"
	"github.com/stake-plus/activity-tickets/src/google/sheets"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/records/memory"
)

// Storage is the record and blob backend selected by configuration.
type Storage struct {
	Records records.Store
	Blobs   records.BlobStore
	Resizer records.Resizer
	Marker  records.Highlighter
}

// OpenStorage connects the configured backend. The Google backend checks the
// default sheet exists so a typo fails startup instead of the first upload.
func OpenStorage(ctx context.Context, cfg *sharedconfig.TicketsConfig) (Storage, error) {
	switch cfg.Storage {
	case sharedconfig.StorageMemory:
		log.Printf("actions: using in-memory storage, records are lost on restart")
		store := memory.NewStore()
		store.AddTable(cfg.Target.SpreadsheetID, cfg.Target.SheetName)
		return Storage{Records: store, Blobs: memory.NewBlobs(), Resizer: store, Marker: store}, nil

	case sharedconfig.StorageGoogle, "":
		creds := google.Credentials{JSON: cfg.GoogleCredentialsJSON, File: cfg.GoogleCredentialsFile}
		retry := google.DefaultRetry
		if cfg.RetryAttempts > 0 {
			retry.Attempts = cfg.RetryAttempts
		}
		sheetsClient, err := sheets.New(ctx, creds, sheets.Options{
			RequestsPerSecond: cfg.SheetsRequestsPerSec,
			Burst:             cfg.SheetsBurst,
			Retry:             retry,
		})
		if err != nil {
			return Storage{}, fmt.Errorf("actions: sheets client: %w", err)
		}
		if _, err := sheetsClient.SheetID(ctx, cfg.Target.SpreadsheetID, cfg.Target.SheetName); err != nil {
			return Storage{}, fmt.Errorf("actions: resolve sheet %q: %w", cfg.Target.SheetName, err)
		}
		driveClient, err := drive.New(ctx, creds, retry)
		if err != nil {
			return Storage{}, fmt.Errorf("actions: drive client: %w", err)
		}
		return Storage{Records: sheetsClient, Blobs: driveClient, Resizer: sheetsClient, Marker: sheetsClient}, nil

	default:
		return Storage{}, fmt.Errorf("actions: unknown storage backend %q", cfg.Storage)
	}
}

// PrepareTargets writes headers or grid labels on every known target. Only
// the default target is required to succeed.
func PrepareTargets(ctx context.Context, ledgers records.LedgerFactory, def records.Target, targets []records.Target) error {
	if err := ledgers(def).Prepare(ctx); err != nil {
		return fmt.Errorf("actions: prepare %s: %w", def.Key(), err)
	}
	seen := map[string]bool{def.Key(): true}
	for _, t := range targets {
		if !t.Valid() || seen[t.Key()] {
			continue
		}
		seen[t.Key()] = true
		if err := ledgers(t).Prepare(ctx); err != nil {
			log.Printf("actions: prepare %s failed: %v", t.Key(), err)
		}
	}
	return nil
}
