package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"htmx-todo/internal/config"
	"htmx-todo/internal/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage provisioning starting")

	if cfg.StorageConnection == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	ctx := context.Background()
	if err := storage.CreateTables(ctx, cfg.StorageConnection, []string{cfg.TodosTable}); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if err := storage.CreateQueues(ctx, cfg.StorageConnection, []string{cfg.EventsQueue}); err != nil {
		log.Fatalf("create queues: %v", err)
	}

	log.Info("storage provisioning complete")
}
