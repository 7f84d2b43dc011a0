package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Simplici0/printquote/internal/ledger"
	"github.com/Simplici0/printquote/internal/money"
)

// WriteCSV writes the tabular fallback: a header, one row per item and a TOTAL row.
// Amounts are plain two-decimal numbers so spreadsheets can sum them.
func WriteCSV(w io.Writer, d Document) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, it := range d.Items {
		record := []string{
			strconv.Itoa(i + 1),
			sanitizeExcelCell(it.Description),
			it.Width.String(),
			it.Height.String(),
			strconv.Itoa(it.Quantity),
			it.UnitPrice.StringFixed(2),
			it.LineTotal.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	if err := cw.Write([]string{"", "", "", "", "", "TOTAL", d.Total.StringFixed(2)}); err != nil {
		return fmt.Errorf("write csv total: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteText writes a plain-text summary of snap, one line per item followed by the total.
func WriteText(w io.Writer, snap ledger.Snapshot, symbol string) error {
	for i, it := range snap.Items {
		_, err := fmt.Fprintf(w, "%d - %s | WxH: %sx%s | Qty: %d | %s\n",
			i+1, it.Description, it.Width, it.Height, it.Quantity, money.Format(symbol, it.LineTotal))
		if err != nil {
			return fmt.Errorf("write summary line: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "TOTAL: %s\n", money.Format(symbol, snap.Total)); err != nil {
		return fmt.Errorf("write summary total: %w", err)
	}
	return nil
}
