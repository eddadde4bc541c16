package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mkravets/skladbot/internal/report"
	"github.com/mkravets/skladbot/internal/summary"
)

func TestGenerateDayReport(t *testing.T) {
	date := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	rows := []summary.EmployeeDaySummary{
		{
			EmployeeID: 1,
			Name:       "Иван Петров",
			DaySummary: summary.DaySummary{
				TotalShiftMin: 480,
				Assembly:      summary.Bucket{Units: 10, Minutes: 20},
				ResidueMin:    460,
			},
		},
		{
			EmployeeID: 2,
			DaySummary: summary.DaySummary{TotalShiftMin: 240, ResidueMin: 240},
		},
	}

	t.Run("successful report generation", func(t *testing.T) {
		buffer, err := report.GenerateDayReport(date, rows)

		require.NoError(t, err)
		assert.NotNil(t, buffer)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		sheetList := f.GetSheetList()
		assert.Equal(t, []string{"03.03.2025"}, sheetList)

		headerVal, err := f.GetCellValue("03.03.2025", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Сотрудник", headerVal)

		nameVal, err := f.GetCellValue("03.03.2025", "A2")
		require.NoError(t, err)
		assert.Equal(t, "Иван Петров", nameVal)

		shiftVal, err := f.GetCellValue("03.03.2025", "B2")
		require.NoError(t, err)
		assert.Equal(t, "480", shiftVal)

		residueVal, err := f.GetCellValue("03.03.2025", "I2")
		require.NoError(t, err)
		assert.Equal(t, "460", residueVal)

		// Nameless employees fall back to their ID.
		fallbackName, err := f.GetCellValue("03.03.2025", "A3")
		require.NoError(t, err)
		assert.Equal(t, "ID 2", fallbackName)
	})

	t.Run("no rows for the day", func(t *testing.T) {
		buffer, err := report.GenerateDayReport(date, nil)

		require.Error(t, err)
		assert.Nil(t, buffer)
		require.ErrorIs(t, err, report.ErrNoRows)
	})
}
