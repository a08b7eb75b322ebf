package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/stockpilot/stockpilot/internal/app"
	"github.com/stockpilot/stockpilot/internal/commerce"
	"github.com/stockpilot/stockpilot/internal/export"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/platform/cache"
	"github.com/stockpilot/stockpilot/internal/platform/storage"
	"github.com/stockpilot/stockpilot/internal/reorder"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "stockpilot:", err)
		os.Exit(1)
	}
}

// run refreshes the reorder snapshot once: fetch catalog and sales, fold
// in the active order ledger, cache the result and, when a share address
// is configured, publish it to a spreadsheet.
func run() error {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := newTableStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("table store: %w", err)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	snapshotCache := reorder.NewCache(redisClient, cfg.SnapshotTTL)

	if err := cfg.ValidateCommerce(); err != nil {
		return err
	}
	client, err := commerce.NewClient(cfg.CommerceEndpoint, cfg.CommerceToken,
		commerce.WithHTTPClient(&http.Client{Timeout: cfg.CommerceTimeout}),
		commerce.WithPageSize(cfg.CommercePageSize),
		commerce.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ledgerSvc := ledger.NewService(ledger.NewRepository(tables), logger)

	logger.Info("refreshing reorder snapshot", "lead_time_days", cfg.LeadTimeDays, "safety_stock", cfg.SafetyStock)

	to := time.Now()
	from := to.AddDate(0, 0, -29)

	products, err := client.FetchProducts(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	sales, err := client.FetchSales(ctx, from, to, false)
	if err != nil {
		return fmt.Errorf("fetch sales: %w", err)
	}
	incoming, err := ledgerSvc.IncomingQuantities(ctx)
	if err != nil {
		return fmt.Errorf("incoming quantities: %w", err)
	}

	rows, err := reorder.ComputeSnapshot(products, sales, from, to, reorder.Params{
		LeadTimeDays: cfg.LeadTimeDays,
		SafetyStock:  cfg.SafetyStock,
	}, incoming)
	if err != nil {
		return err
	}
	if err := snapshotCache.Put(ctx, rows); err != nil {
		logger.Warn("snapshot cache write failed", "error", err)
	}
	logger.Info("snapshot ready", "products", len(rows), "window_from", from.Format("2006-01-02"), "window_to", to.Format("2006-01-02"))

	if cfg.SheetsShareWith == "" {
		return nil
	}
	publisher, err := export.NewPublisher(ctx, cfg.SheetsShareWith, logger,
		option.WithCredentialsFile(cfg.SheetsCredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope, sheetsapi.DriveScope),
	)
	if err != nil {
		return err
	}
	url, err := publisher.Publish(ctx, "Reorder "+to.Format("2006-01-02"), export.SnapshotTable(rows))
	if err != nil {
		return err
	}
	logger.Info("snapshot published", "url", url)
	return nil
}

func newTableStore(ctx context.Context, cfg *app.Config) (storage.TableStore, error) {
	if cfg.UseGCS() {
		var creds []byte
		if cfg.GCSCredentialsJSON != "" {
			creds = []byte(cfg.GCSCredentialsJSON)
		}
		return storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix, creds)
	}
	store, err := storage.NewDirStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
