package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stake-plus/activity-tickets/src/actions"
	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	shareddata "github.com/stake-plus/activity-tickets/src/data"
)

func main() {
	sharedconfig.LoadEnvFiles()

	// Use a single DB connection for all modules
	dsn, err := shareddata.GetMySQLDSN()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	db, err := shareddata.ConnectMySQL(dsn)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := shareddata.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := actions.StartAll(ctx, db)
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}
	log.Printf("activity-tickets: running modules %v", manager.Names())

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	stopCtx, stopCancel := context.WithTimeout(ctx, 30*time.Second)
	defer stopCancel()
	manager.Stop(stopCtx)
}
