package main

import (
	"context"
	"log"
	"os"
	"time"

	"storefront-api/internal/config"
	"storefront-api/internal/db"
	cartrepo "storefront-api/internal/repository/cart"
)

// Sweep is meant to run on a schedule (cron or a k8s CronJob). It marks carts
// without recent activity as abandoned and drops carts past their retention
// window so the table does not grow without bound.
const (
	abandonAfter = 30 * 24 * time.Hour
	retainFor    = 90 * 24 * time.Hour
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[sweep] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	repo := cartrepo.NewPostgres(pool, logger)

	abandoned, err := repo.MarkAbandoned(ctx, abandonAfter)
	if err != nil {
		logger.Fatalf("mark abandoned: %v", err)
	}
	deleted, err := repo.DeleteExpired(ctx, retainFor)
	if err != nil {
		logger.Fatalf("delete expired: %v", err)
	}

	logger.Printf("sweep done: %d carts abandoned, %d deleted", abandoned, deleted)
}
