// internal/pkg/spreadsheet/xlsx.go
package spreadsheet

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// SalesSheetName is the worksheet holding exported sales
const SalesSheetName = "Sales"

const columnWidth = 18

// WriteSales renders rows as a single-sheet workbook with a bold header row
func WriteSales(w io.Writer, rows []domain.ExportRow) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(SalesSheetName)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}

	header := sheet.AddRow()
	for _, name := range domain.ExportColumns {
		cell := header.AddCell()
		cell.SetString(name)
		style := cell.GetStyle()
		style.Font.Bold = true
		style.Fill.PatternType = "solid"
		style.Fill.FgColor = "CCCCCC"
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r.Values() {
			cell := row.AddCell()
			switch value := v.(type) {
			case float64:
				cell.SetFloat(value)
			case string:
				cell.SetString(value)
			default:
				cell.SetValue(value)
			}
		}
	}

	sheet.SetColWidth(1, len(domain.ExportColumns), columnWidth)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
