// Package export renders the batch results into an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dkitanovski/contract-extractor/internal/entity"
	"github.com/dkitanovski/contract-extractor/internal/repository"
)

// Service is a tiny façade over the job repository that produces XLSX bytes.
type Service struct {
	jobs   repository.ExtractionJobRepository
	logger *slog.Logger
}

func NewService(jobs repository.ExtractionJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportResultsXLSX returns a workbook with one row per processed file.
func (s *Service) ExportResultsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	return s.render(jobs, start)
}

func (s *Service) render(jobs []*entity.ExtractionJob, start time.Time) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Source File",
		"Document Type",
		"Contract Number",
		"Contract Date",
		"Tax ID",
		"Resident",
		"Business",
		"Status",
		"Complete",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.SourceFile)
		write(2, j.DocType.String())
		write(3, deref(j.ContractNumber))
		write(4, deref(j.ContractDate))
		write(5, deref(j.TaxID))
		// Undetermined flags export as blank cells, never as false.
		write(6, flag(j.Resident))
		write(7, flag(j.Business))
		write(8, string(j.Status))
		write(9, j.Complete())
		write(10, deref(j.ErrorMessage))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 48) // source file
	_ = f.SetColWidth(sheet, "B", "B", 14) // type
	_ = f.SetColWidth(sheet, "C", "E", 18) // extracted values
	_ = f.SetColWidth(sheet, "H", "H", 12) // status
	_ = f.SetColWidth(sheet, "J", "J", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("results exported",
		"rows", len(jobs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func flag(b *bool) any {
	if b == nil {
		return ""
	}
	return *b
}
