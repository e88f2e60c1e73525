// Command reconcile repairs chat links and request markers left behind by
// partially applied multi-document writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bigvyapaar/internal/config"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"
	"bigvyapaar/internal/server"
	"bigvyapaar/internal/service"
)

func main() {
	if err := run(); err != nil {
		observability.Logger.Error("reconcile failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time limit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.Logger = observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend, db, rdb, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}()

	stores, err := repository.NewStores(backend)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}

	report, err := service.NewReconciler(stores.Users, stores.Chats).Run(ctx)
	if report != nil {
		observability.Logger.Info("reconcile finished",
			"chats_scanned", report.ChatsScanned,
			"links_repaired", report.LinksRepaired,
			"users_scanned", report.UsersScanned,
			"markers_repaired", report.MarkersRepaired,
			"failures", report.Failures,
		)
	}
	return err
}
