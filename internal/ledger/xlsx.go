package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Receipts"

// WriteXLSX writes the ledger as an XLSX workbook with the same columns as
// the CSV export plus the trailing totals row.
func WriteXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, v)
	}

	headers := []string{"日付", "金額", "支払先", "摘要"}
	for i, h := range headers {
		if err := write(i+1, 1, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	var total int64
	row := 2
	for _, r := range records {
		cells := []any{r.Date, r.Amount, r.Payee, r.Description}
		for i, v := range cells {
			if err := write(i+1, row, v); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
		total += r.Amount
		row++
	}

	if err := write(1, row, totalLabel); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}
	if err := write(2, row, total); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
