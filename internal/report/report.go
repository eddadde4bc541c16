// Package report renders the supervisor's day summary as an XLSX file
// that the bot sends as a document.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mkravets/skladbot/internal/summary"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// ErrNoRows is returned when nobody logged a shift or an operation that day.
var ErrNoRows = errors.New("failed to generate report, no rows for the requested day")

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateDayReport builds an XLSX with one sheet named after the date
// and one row per employee with shift minutes, per-type piecework and
// the unaccounted residue. Returns ErrNoRows for an empty day.
func GenerateDayReport(date time.Time, rows []summary.EmployeeDaySummary) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	gen := NewGenerator()
	defer gen.file.Close()

	sheetName := timeutil.FormatDateDMY(date)
	if _, err = gen.file.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
	}

	if err = gen.setupSheet(sheetName, len(rows)); err != nil {
		return nil, fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
	}

	headerIndex := 2
	for i, row := range rows {
		if err = gen.addRow(sheetName, i+headerIndex, row); err != nil { // i+2, because the first row - header
			return nil, fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
		}
	}

	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// setupSheet initializes the sheet with headers, styles, and column widths.
func (g *Generator) setupSheet(sheetName string, rowCount int) error {
	var err error

	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	rowHeight := 20
	headers := []string{
		"Сотрудник", "Смена, мин", "FBS, шт", "FBS, мин",
		"Упаковка, шт", "Упаковка, мин", "Прочее, мин", "Разное, мин", "Без операций, мин",
	}
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "I1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	widths := map[string]float64{
		"A": 30, "B": 12, "C": 10, "D": 10, "E": 14, "F": 14, "G": 12, "H": 12, "I": 18, //nolint:mnd // const values for row width
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:I%d", rowCount+1),
		Name:      "table_" + strings.ReplaceAll(sheetName, ".", "_"),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow writes one employee's totals into the given row number.
func (g *Generator) addRow(sheetName string, rowNum int, row summary.EmployeeDaySummary) error {
	name := row.Name
	if name == "" {
		name = fmt.Sprintf("ID %d", row.EmployeeID)
	}

	rowData := []interface{}{
		name,
		row.TotalShiftMin,
		row.Assembly.Units,
		row.Assembly.Minutes,
		row.Packing.Units,
		row.Packing.Minutes,
		row.OtherMin,
		row.MiscMin,
		row.ResidueMin,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}
