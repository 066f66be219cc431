package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"bonus-service/internal/config"
	"bonus-service/internal/export"
	"bonus-service/internal/logging"
	"bonus-service/internal/services"
)

func main() {
	configPath := flag.String("config", ".env", "Path to an env-style config file")
	staff := flag.String("staff", "", "Staff salary workbook (required)")
	worker := flag.String("worker", "", "Worker salary workbook (required)")
	dueVouchers := flag.String("due-vouchers", "", "Due voucher ledger workbook")
	loans := flag.String("loans", "", "Loan ledger workbook")
	percentages := flag.String("percentages", "", "Bonus percentage override workbook")
	hrLedger := flag.String("hr", "", "HR bonus ledger workbook to reconcile against")
	asOf := flag.String("as-of", "", "Reference date YYYY-MM-DD (default today)")
	out := flag.String("out", "bonus-report.xlsx", "Output xlsx path")
	jsonOut := flag.String("json", "", "Optional path for a JSON dump of the report")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	// Local runs read paths as given and never touch the database.
	service := services.NewBonusRunService(
		nil, nil, nil,
		services.NewInputLoader("", logger),
		cfg.Rules(),
		cfg.Reconciliation.Tolerance,
		logger,
	)

	result, err := service.Run(context.Background(), services.RunRequest{
		InputFiles: services.InputFiles{
			Staff:       *staff,
			Worker:      *worker,
			DueVouchers: *dueVouchers,
			Loans:       *loans,
			Percentages: *percentages,
			HRLedger:    *hrLedger,
		},
		AsOf:   *asOf,
		UserID: "cli",
	})
	if err != nil {
		logger.Fatal("Bonus run failed", zap.Error(err))
	}

	if err := export.SaveReport(result.Report, *out); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}

	if *jsonOut != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Fatal("Failed to encode report", zap.Error(err))
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			logger.Fatal("Failed to write JSON report", zap.Error(err))
		}
	}

	summary := result.Report.ReconciliationSummary
	fmt.Printf("run %s: %d computations, %d matched, %d mismatched, %d missing -> %s\n",
		result.Run.RunID, result.Run.ComputationCount,
		summary.Matched, summary.Mismatched, summary.Missing, *out)
}
