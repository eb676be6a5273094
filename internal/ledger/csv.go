package ledger

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var csvBOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the fixed export header: Date, Amount, Payee, Description.
const csvHeader = "日付,金額,支払先,摘要"

// totalLabel labels the trailing totals row.
const totalLabel = "合計"

// WriteCSV writes the ledger as UTF-8 CSV with a byte-order mark, one row
// per record in ledger order, followed by a totals row. Fields are written
// verbatim: embedded delimiters are not quoted or escaped, which is a known
// limitation of the format.
func WriteCSV(w io.Writer, records []Record) error {
	if _, err := w.Write(csvBOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	var total int64
	lines := make([]string, 0, len(records)+2)
	lines = append(lines, csvHeader)
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s,%d,%s,%s", r.Date, r.Amount, r.Payee, r.Description))
		total += r.Amount
	}
	lines = append(lines, fmt.Sprintf("%s,%d,,", totalLabel, total))

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// ExportFilename returns the download filename for an export taken at the
// given time, e.g. "receipt_history_2024-01-25.csv".
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("receipt_history_%s.%s", now.Format("2006-01-02"), ext)
}
