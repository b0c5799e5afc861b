package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/repository"
)

// Service is a tiny façade over the receipt repository that produces
// XLSX bytes for exports.
type Service struct {
	repo   repository.ReceiptRepository
	logger *slog.Logger
}

func NewService(repo repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Options narrows the export.
type Options struct {
	// ConfirmedOnly limits the workbook to confirmed receipts, the set a
	// budgeting handoff cares about.
	ConfirmedOnly bool
	Limit         int
}

// ReceiptsXLSX returns an XLSX workbook of the owner's receipts.
func (s *Service) ReceiptsXLSX(ctx context.Context, ownerID string, opts Options) ([]byte, error) {
	start := time.Now()

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	recs, err := s.repo.List(ctx, ownerID, limit)
	if err != nil {
		return nil, common.NewStorage("failed to list receipts for export", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("xlsx sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Payee",
		"Category",
		"Total",
		"VAT",
		"VAT Rate",
		"Status",
		"Note",
		"Exported To YNAB At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	rows := 0
	for _, r := range recs {
		if opts.ConfirmedOnly && r.Status != constants.StatusConfirmed {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, deref(r.Date))
		write(2, deref(r.Payee))
		write(3, deref(r.Category))
		write(4, deref(r.Total))
		write(5, deref(r.VAT))
		write(6, deref(r.VATRate))
		write(7, string(r.Status))
		write(8, truncate(deref(r.Note), 140))
		write(9, deref(r.YNABExportedAt))

		row++
		rows++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // payee
	_ = f.SetColWidth(sheet, "C", "C", 18) // category
	_ = f.SetColWidth(sheet, "D", "F", 10) // amounts
	_ = f.SetColWidth(sheet, "G", "G", 12) // status
	_ = f.SetColWidth(sheet, "H", "H", 48) // note
	_ = f.SetColWidth(sheet, "I", "I", 22) // export marker

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", ownerID,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
