package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/checkbox"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/customer"
	"github.com/dkitanovski/contract-extractor/internal/extract"
	"github.com/dkitanovski/contract-extractor/internal/fields"
	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/ingest"
	"github.com/dkitanovski/contract-extractor/internal/ocr"
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
		file    = flag.String("file", "", "PDF file to extract from (required)")
		docType = flag.Int("type", 0, "document type 1-5 (default: derived from file name)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	t := constants.DocType(*docType)
	if !t.Valid() {
		t = ingest.TypeFromFilename(*file)
	}
	if !t.Valid() {
		printError("Error: cannot determine document type for %s, pass --type\n", *file)
		os.Exit(1)
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		logger.Error("loading schema overrides", "error", err)
		os.Exit(1)
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
	proc := ingest.NewProcessor(extractor, orch, registry, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OCR.Timeout)
	defer cancel()

	res, err := proc.Process(ctx, *file, t)
	if err != nil {
		logger.Error("extraction failed", "file", *file, "error", err)
		os.Exit(1)
	}

	out := map[string]any{
		"contract_number": res.ContractNumber,
		"contract_date":   res.ContractDate,
		"tax_id":          res.TaxID,
		"resident":        res.Resident,
		"business":        res.Business,
		"complete":        res.Complete(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encoding result", "error", err)
		os.Exit(1)
	}
}

func loadRegistry(cfg *common.Config) (*schema.Registry, error) {
	if cfg.Extract.SchemaFile == "" {
		return schema.Builtin(), nil
	}
	return schema.LoadFile(cfg.Extract.SchemaFile)
}
