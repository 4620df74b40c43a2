// =============================================================================
// Jira to XLSX Converter - XLSX Writer Module
// =============================================================================
//
// This module renders a finished cell grid into an Excel workbook. Two entry
// points share the same construction path:
//
//   Write      - the styled workbook: colored header band with bold white
//                text, wrapped and centered header cells, thin borders on
//                every cell, per-column widths sized to content, and a
//                frozen header row.
//   WritePlain - the same sheet and the same cells with no styling at all.
//                The pipeline falls back to this when styled output fails,
//                so a styling problem never costs the data.
//
// CELL TYPES:
//   Columns flagged numeric in the descriptor are written as number cells
//   whenever the value parses, so spreadsheet formulas work on them without
//   manual conversion. Everything else is written as text exactly as
//   derived.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strconv"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
)

// =============================================================================
// STYLING CONSTANTS
// =============================================================================

const (
	// headerFillColor is the header band fill (a dark slate blue).
	headerFillColor = "366092"

	// headerFontColor is the header text color (white on the dark band).
	headerFontColor = "FFFFFF"

	// headerFontSize is the header text size in points.
	headerFontSize = 10

	// headerRowHeight leaves room for wrapped multi-line headers.
	headerRowHeight = 45

	// borderColor is used for the thin borders on every cell.
	borderColor = "000000"

	// Column widths are sized to the longest cell plus padding, then
	// clamped to this range so one long summary cannot produce an
	// unreadably wide column.
	minColumnWidth = 15
	maxColumnWidth = 50

	// widthPadding is added to the measured content width.
	widthPadding = 2
)

// =============================================================================
// PUBLIC ENTRY POINTS
// =============================================================================

// Write saves the grid as a styled workbook at path. The sheet is named
// after the descriptor, the header row is drawn from the descriptor's
// declared columns, and grid rows follow in order.
func Write(path string, desc *schema.Descriptor, grid [][]string) error {
	f, err := build(desc, grid)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := applyStyles(f, desc, grid); err != nil {
		return fmt.Errorf("failed to style workbook: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

// WritePlain saves the grid with default formatting only. Sheet name, cell
// values, and cell types are identical to Write.
func WritePlain(path string, desc *schema.Descriptor, grid [][]string) error {
	f, err := build(desc, grid)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

// =============================================================================
// WORKBOOK CONSTRUCTION
// =============================================================================

// build creates an in-memory workbook holding the header row and all grid
// rows. Styling is applied separately so the plain fallback shares this
// path.
func build(desc *schema.Descriptor, grid [][]string) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := desc.SheetName
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
		}
	}

	headers := desc.Headers()
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for r, row := range grid {
		cells := make([]interface{}, len(row))
		for c, value := range row {
			cells[c] = cellValue(desc, c, value)
		}

		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to address row %d: %w", r+2, err)
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	return f, nil
}

// cellValue picks the cell type for one value. Numeric columns become
// float cells when the value parses; anything else stays a string.
func cellValue(desc *schema.Descriptor, col int, value string) interface{} {
	if col < len(desc.Fields) && desc.Fields[col].Numeric {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	return value
}

// =============================================================================
// STYLING
// =============================================================================

// applyStyles decorates an already-built workbook: header band, cell
// borders, row heights, column widths, and the frozen header row.
func applyStyles(f *excelize.File, desc *schema.Descriptor, grid [][]string) error {
	sheet := desc.SheetName
	cols := len(desc.Fields)
	if cols == 0 {
		return nil
	}

	borders := []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: headerFontColor,
			Size:  headerFontSize,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{headerFillColor},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: borders,
	})
	if err != nil {
		return err
	}

	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Vertical: "center",
		},
		Border: borders,
	})
	if err != nil {
		return err
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, headerRowHeight); err != nil {
		return err
	}

	if len(grid) > 0 {
		lastDataCell, err := excelize.CoordinatesToCellName(cols, len(grid)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A2", lastDataCell, dataStyle); err != nil {
			return err
		}
	}

	if err := setColumnWidths(f, desc, grid); err != nil {
		return err
	}

	// Keep the header visible while scrolling.
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// setColumnWidths sizes each column to its longest display value, padded
// and clamped. Display width, not byte length, so wide runes count double.
func setColumnWidths(f *excelize.File, desc *schema.Descriptor, grid [][]string) error {
	headers := desc.Headers()

	for c, header := range headers {
		longest := runewidth.StringWidth(header)
		for _, row := range grid {
			if c >= len(row) {
				continue
			}
			if w := runewidth.StringWidth(row[c]); w > longest {
				longest = w
			}
		}

		width := float64(longest + widthPadding)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if width < minColumnWidth {
			width = minColumnWidth
		}

		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(desc.SheetName, name, name, width); err != nil {
			return err
		}
	}

	return nil
}
