package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/commerce/backend/internal/bootstrap"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/commerce/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var opts bootstrap.SeedOptions
	flag.StringVar(&opts.StoreName, "store-name", "", "Store name (default: app.name)")
	flag.StringVar(&opts.AdminEmail, "admin-email", "", "Email of the admin user to create")
	flag.StringVar(&opts.AdminPassword, "admin-password", "", "Password of the admin user (min 8 characters)")
	flag.BoolVar(&opts.Demo, "demo", false, "Also create regions, shipping options, tax rates and demo products")
	flag.Parse()

	if opts.AdminEmail != "" && opts.AdminPassword == "" {
		opts.AdminPassword = os.Getenv("COMMERCE_SEED_ADMIN_PASSWORD")
	}
	if opts.AdminEmail != "" && opts.AdminPassword == "" {
		fmt.Fprintln(os.Stderr, "-admin-password or COMMERCE_SEED_ADMIN_PASSWORD is required with -admin-email")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log, bootstrap.WithSyncEvents())
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	_, seedErr := bootstrap.Seed(ctx, app, opts)
	if err := app.Shutdown(ctx); err != nil {
		log.Warn("Shutdown failed", zap.Error(err))
	}
	if seedErr != nil {
		log.Fatal("Seed failed", zap.Error(seedErr))
	}
}
