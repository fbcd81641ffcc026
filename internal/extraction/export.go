package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Extractions"

var exportHeaders = []string{
	"Extraction ID",
	"Created At",
	"Status",
	"Currency",
	"Type",
	"Value",
	"Source",
	"Pipeline Confidence",
}

// ExportXLSX returns the extraction history as an XLSX workbook, one row per
// labelled amount. Runs that found no amounts get a single row with the reason
// in the Source column.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	extractions, err := s.ListExtractions()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	row := 2
	write := func(values ...any) error {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
		row++
		return nil
	}

	for _, e := range extractions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		created := e.CreatedAt.UTC().Format(time.RFC3339)
		if e.Result == nil || len(e.Result.Amounts) == 0 {
			var status, reason string
			if e.Result != nil {
				status, reason = e.Result.Status, e.Result.Reason
			}
			if err := write(e.ID, created, status, "", "", "", reason, ""); err != nil {
				return nil, err
			}
			continue
		}

		for _, a := range e.Result.Amounts {
			err := write(e.ID, created, e.Result.Status, e.Result.Currency,
				string(a.Type), a.Value.Value, a.Source, e.Result.PipelineConfidence)
			if err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 38)
	_ = f.SetColWidth(exportSheet, "B", "B", 22)
	_ = f.SetColWidth(exportSheet, "C", "E", 18)
	_ = f.SetColWidth(exportSheet, "G", "G", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing xlsx: %w", err)
	}

	slog.Info("Exported extractions", "extractions", len(extractions), "rows", row-2, "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
