package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/washa/backend/internal/config"
	"github.com/washa/backend/internal/observability"
	"github.com/washa/backend/internal/reconcile"
	"github.com/washa/backend/internal/server"
)

func main() {
	cfg := config.Load()

	var path string
	var force bool
	flag.StringVar(&path, "file", cfg.ImportStartupPath, "Path to the payment JSON file")
	flag.BoolVar(&force, "force", false, "Import even when imported payments already exist")
	flag.Parse()

	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := server.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer stores.Conn.Close()

	if !stores.Conn.WaitReady(ctx, cfg.DBStartupWait) {
		logger.Error("store not ready", "driver", stores.Driver)
		os.Exit(1)
	}
	app := server.Wire(cfg, logger, stores)

	var out any
	if force {
		out, err = app.Orchestrator.ImportFile(ctx, path, reconcile.Options{Source: reconcile.SourceStartup})
	} else {
		out, err = app.Orchestrator.StartupSweep(ctx, path, "")
	}
	if err != nil {
		logger.Error("import failed", "path", path, "err", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("write result failed", "err", err)
		os.Exit(1)
	}
}
