package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dkitanovski/contract-extractor/internal/checkbox"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/customer"
	"github.com/dkitanovski/contract-extractor/internal/export"
	"github.com/dkitanovski/contract-extractor/internal/extract"
	"github.com/dkitanovski/contract-extractor/internal/fields"
	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/ingest"
	"github.com/dkitanovski/contract-extractor/internal/ocr"
	"github.com/dkitanovski/contract-extractor/internal/repository"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to sweep for contract PDFs and ZIP bundles (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "results.xlsx")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	cfg.Batch.InputDir = *dir
	cfg.Batch.ResultsFile = *out
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	registry := schema.Builtin()
	if cfg.Extract.SchemaFile != "" {
		registry, err = schema.LoadFile(cfg.Extract.SchemaFile)
		if err != nil {
			logger.Error("loading schema overrides", "file", cfg.Extract.SchemaFile, "error", err)
			os.Exit(1)
		}
		logger.Info("schema overrides loaded", "file", cfg.Extract.SchemaFile)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:   cfg.OCR.Pdftotext,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		Language:    cfg.OCR.Language,
		DPI:         cfg.OCR.DPI,
		PSM:         cfg.OCR.PSM,
		TessdataDir: cfg.OCR.TessdataDir,
	}, ocr.NewRunner(), logger)

	orch := extract.NewOrchestrator(
		registry,
		fields.New(cfg.Extract.AnchorThreshold),
		customer.NewResolver(customer.Config{KeywordThreshold: cfg.Extract.KeywordThreshold}, checkbox.NewDetector(logger), logger),
		imaging.NewTableCorrector(imaging.TableConfig{}, logger),
		extractor,
		logger,
	)

	jobsRepo := repository.NewExtractionJobRepository(db, logger)
	proc := ingest.NewProcessor(extractor, orch, registry, logger)
	worker := ingest.NewWorker(cfg.Batch, proc, jobsRepo, logger)

	if err := worker.Run(ctx); err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}

	xlsx, err := export.NewService(jobsRepo, logger).ExportResultsXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(cfg.Batch.ResultsFile, xlsx, 0o644); err != nil {
		logger.Error("writing results file", "path", cfg.Batch.ResultsFile, "error", err)
		os.Exit(1)
	}
	logger.Info("results written", "path", cfg.Batch.ResultsFile)
}
