package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/app"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/config"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/logging"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var (
		inputPath = flag.String("input", "", "Path to a JSON array of purchase requests (defaults to the built-in samples)")
		dbPath    = flag.String("db", "", "SQLite database path (overrides SQLITE_PATH)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Storage.Driver = "sqlite"
		cfg.Storage.SQLitePath = *dbPath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	decimal.MarshalJSONWithoutQuotes = true

	reqs := sampleRequests()
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			logger.Fatal("open input", zap.String("path", *inputPath), zap.Error(err))
		}
		reqs, err = loadRequests(f)
		f.Close()
		if err != nil {
			logger.Fatal("read input", zap.String("path", *inputPath), zap.Error(err))
		}
	}

	ctx := context.Background()
	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	defer application.Close()

	outcomes := application.Service.SubmitBatch(ctx, reqs)
	if err := writeOutcomes(os.Stdout, outcomes); err != nil {
		logger.Error("write outcomes", zap.Error(err))
	}

	var failed int
	for _, out := range outcomes {
		if !out.OK {
			failed++
		}
	}
	logger.Info("processed purchases", zap.Int("total", len(outcomes)), zap.Int("failed", failed))
}

func sampleRequests() []models.PurchaseRequest {
	return []models.PurchaseRequest{
		{UserID: "u001", BTCAmount: decimal.RequireFromString("0.01"), BaseCurrency: models.USD},
		{UserID: "u002", BTCAmount: decimal.RequireFromString("0.05"), BaseCurrency: models.EUR},
		{UserID: "u001", BTCAmount: decimal.RequireFromString("0.003"), BaseCurrency: models.GBP},
	}
}

func loadRequests(r io.Reader) ([]models.PurchaseRequest, error) {
	var reqs []models.PurchaseRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode purchase requests: %w", err)
	}
	return reqs, nil
}

func writeOutcomes(w io.Writer, outcomes []models.Outcome) error {
	raw, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
