package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	syncapp "github.com/splitfin/syncpipe/internal/application/sync"
	"github.com/splitfin/syncpipe/internal/infrastructure/checkpoint"
	"github.com/splitfin/syncpipe/internal/infrastructure/config"
	"github.com/splitfin/syncpipe/internal/infrastructure/logger"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence"
	"github.com/splitfin/syncpipe/internal/infrastructure/zoho"
)

func main() {
	var collections string
	flag.StringVar(&collections, "collections", "", "Comma-separated subset of collections to sync (default: all)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting sync pipeline",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("pipeline", cfg.Pipeline.ID),
	)

	// Target database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to target database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	// Source API client
	client, err := zoho.NewClient(&zoho.Config{
		ClientID:          cfg.Zoho.ClientID,
		ClientSecret:      cfg.Zoho.ClientSecret,
		RefreshToken:      cfg.Zoho.RefreshToken,
		OrganizationID:    cfg.Zoho.OrganizationID,
		AuthBaseURL:       cfg.Zoho.AuthBaseURL,
		APIBaseURL:        cfg.Zoho.APIBaseURL,
		RequestsPerMinute: cfg.Zoho.RequestsPerMinute,
		MaxRetries:        cfg.Zoho.MaxRetries,
		TimeoutSeconds:    cfg.Zoho.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to create source API client", zap.Error(err))
	}

	// Checkpoints
	checkpoints, err := checkpoint.NewFileStore(cfg.Pipeline.CheckpointDir)
	if err != nil {
		log.Fatal("Failed to open checkpoint directory", zap.Error(err))
	}

	stores := syncapp.Stores{
		Brands:    persistence.NewGormBrandRepository(db.DB),
		Customers: persistence.NewGormCustomerRepository(db.DB),
		Items:     persistence.NewGormItemRepository(db.DB),
		Orders:    persistence.NewGormOrderRepository(db.DB),
		LineItems: persistence.NewGormOrderLineItemRepository(db.DB),
		Invoices:  persistence.NewGormInvoiceRepository(db.DB),
		Shipments: persistence.NewGormShipmentRepository(db.DB),
	}

	stages := syncapp.BuildStages(client, stores, cfg.Pipeline)

	selection := cfg.Pipeline.Collections
	if collections != "" {
		selection = splitCollections(collections)
	}
	stages, err = syncapp.SelectStages(stages, selection)
	if err != nil {
		log.Fatal("Invalid collection selection", zap.Error(err))
	}

	writer := syncapp.NewWriter(checkpoints, cfg.Pipeline.ID, cfg.Pipeline.BatchSize, log)
	controller := syncapp.NewController(writer, cfg.Pipeline.ID, log)

	// First SIGINT/SIGTERM stops at the next batch boundary; a second one
	// kills the process the usual way.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := controller.Run(ctx, stages)

	fmt.Print(summary.String())
	if !summary.OK() {
		os.Exit(1)
	}
}

func splitCollections(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
