package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Template placeholders. ItemsAnchor marks the cell where the item table starts.
const (
	ClientPlaceholder   = "{{CLIENT}}"
	ProposalPlaceholder = "{{PROPOSAL}}"
	DatePlaceholder     = "{{DATE}}"
	ItemsAnchor         = "{{ITEMS}}"
)

const defaultSheet = "Quote"

// GenerateExcel renders d as an .xlsx workbook. With a templatePath the template is
// filled in place; otherwise a standalone sheet is laid out.
func GenerateExcel(d Document, templatePath string) ([]byte, error) {
	if templatePath != "" {
		return fillTemplate(d, templatePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), defaultSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	widths := []float64{6, 40, 12, 12, 8, 16, 16}
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(defaultSheet, name, name, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	if err := f.MergeCell(defaultSheet, "A1", "G1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(defaultSheet, "A1", "QUOTE "+d.Proposal)
	f.SetCellStyle(defaultSheet, "A1", "G1", titleStyle)
	f.SetCellValue(defaultSheet, "A2", "Client: "+d.Client)
	f.SetCellValue(defaultSheet, "A3", "Date: "+d.DateLabel())

	if err := writeItems(f, defaultSheet, 1, 5, d); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func fillTemplate(d Document, templatePath string) ([]byte, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	replacer := strings.NewReplacer(
		ClientPlaceholder, sanitizeExcelCell(d.Client),
		ProposalPlaceholder, d.Proposal,
		DatePlaceholder, d.DateLabel(),
	)

	anchorSheet, anchorCol, anchorRow := "", 0, 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read template sheet %s: %w", sheet, err)
		}
		for r, cells := range rows {
			for c, value := range cells {
				if !strings.Contains(value, "{{") {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, fmt.Errorf("resolve template cell: %w", err)
				}
				if strings.Contains(value, ItemsAnchor) && anchorSheet == "" {
					anchorSheet, anchorCol, anchorRow = sheet, c+1, r+1
					continue
				}
				if err := f.SetCellValue(sheet, cell, replacer.Replace(value)); err != nil {
					return nil, fmt.Errorf("fill template cell %s: %w", cell, err)
				}
			}
		}
	}

	if anchorSheet == "" {
		// No anchor: append the table below the first sheet's content.
		anchorSheet = f.GetSheetName(0)
		rows, err := f.GetRows(anchorSheet)
		if err != nil {
			return nil, fmt.Errorf("read template sheet %s: %w", anchorSheet, err)
		}
		anchorCol, anchorRow = 1, len(rows)+2
	} else if err := f.InsertRows(anchorSheet, anchorRow+1, len(d.Items)+1); err != nil {
		return nil, fmt.Errorf("insert item rows: %w", err)
	}

	if err := writeItems(f, anchorSheet, anchorCol, anchorRow, d); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// writeItems writes the header row at (col, row), the items below it and a TOTAL row.
func writeItems(f *excelize.File, sheet string, col, row int, d Document) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("create body style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}})
	if err != nil {
		return fmt.Errorf("create total style: %w", err)
	}

	if err := setRow(f, sheet, col, row, columns, headerStyle); err != nil {
		return err
	}
	for i, it := range d.Items {
		values := d.cells(i+1, it)
		values[1] = sanitizeExcelCell(values[1])
		if err := setRow(f, sheet, col, row+1+i, values, bodyStyle); err != nil {
			return err
		}
	}

	totalRow := row + 1 + len(d.Items)
	labels := make([]string, len(columns))
	labels[len(labels)-2] = "TOTAL"
	labels[len(labels)-1] = d.amount(d.Total)
	return setRow(f, sheet, col, totalRow, labels, totalStyle)
}

func setRow(f *excelize.File, sheet string, col, row int, values []string, style int) error {
	first, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("resolve row %d: %w", row, err)
	}
	last, err := excelize.CoordinatesToCellName(col+len(values)-1, row)
	if err != nil {
		return fmt.Errorf("resolve row %d: %w", row, err)
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, first, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("style row %d: %w", row, err)
	}
	return nil
}

// sanitizeExcelCell prefixes values spreadsheet apps would read as formulas. CSV rows use it too.
func sanitizeExcelCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
