package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/summary"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// formatOperationSaved confirms a written operation row back to the worker.
func formatOperationSaved(op models.Operation) string {
	var sb strings.Builder

	sb.WriteString("Записал ✅\n\n")
	sb.WriteString(op.Type)
	if op.Article != "" {
		sb.WriteString(", ")
		sb.WriteString(op.Article)
	}
	if op.Quantity != nil {
		fmt.Fprintf(&sb, " — %d шт", *op.Quantity)
	}
	sb.WriteString("\nВремя: ")
	sb.WriteString(timeutil.FormatMinutesHuman(op.DurationMin))
	if op.Comment != "" {
		sb.WriteString("\nКомментарий: ")
		sb.WriteString(op.Comment)
	}

	return sb.String()
}

// formatDaySummary renders one employee's day for the summary button.
func formatDaySummary(now time.Time, shifts []models.Shift, ops []models.Operation) string {
	day := summary.BuildDaySummary(shifts, ops, now)

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Итог за %s*\n\n", timeutil.FormatDateDMY(now))

	if len(day.Shifts) == 0 {
		sb.WriteString("Смен сегодня не было.\n")
	} else {
		for _, sh := range day.Shifts {
			start := timeutil.FormatHM(sh.Start)
			end := "…"
			if sh.End != nil {
				end = timeutil.FormatHM(*sh.End)
			}
			fmt.Fprintf(&sb, "Смена %s–%s: %s\n", start, end, timeutil.FormatMinutesHuman(sh.Minutes))
		}
	}
	fmt.Fprintf(&sb, "Всего в смене: %s\n\n", timeutil.FormatMinutesHuman(day.TotalShiftMin))

	sb.WriteString(formatBuckets(day))

	return sb.String()
}

// formatBuckets renders the per-type operation totals shared by the
// personal summary and the admin report.
func formatBuckets(day summary.DaySummary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FBS-сборка: %d шт, %s\n", day.Assembly.Units, timeutil.FormatMinutesHuman(day.Assembly.Minutes))
	fmt.Fprintf(&sb, "Упаковка: %d шт, %s\n", day.Packing.Units, timeutil.FormatMinutesHuman(day.Packing.Minutes))
	fmt.Fprintf(&sb, "Прочие задачи: %s\n", timeutil.FormatMinutesHuman(day.OtherMin))
	if day.MiscMin > 0 {
		fmt.Fprintf(&sb, "Остальное: %s\n", timeutil.FormatMinutesHuman(day.MiscMin))
	}
	fmt.Fprintf(&sb, "\nОперации всего: %s\n", timeutil.FormatMinutesHuman(day.TotalOpMin))
	fmt.Fprintf(&sb, "Без операций: %s", timeutil.FormatMinutesHuman(day.ResidueMin))

	return sb.String()
}

// formatAdminSummary renders the all-employee digest for /report.
func formatAdminSummary(date time.Time, rows []summary.EmployeeDaySummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Отчёт за %s*\n", timeutil.FormatDateDMY(date))

	if len(rows) == 0 {
		sb.WriteString("\nЗаписей за этот день нет.")
		return sb.String()
	}

	for _, row := range rows {
		name := row.Name
		if name == "" {
			name = fmt.Sprintf("ID %d", row.EmployeeID)
		}
		fmt.Fprintf(&sb, "\n*%s*\n", name)
		fmt.Fprintf(&sb, "Смена: %s\n", timeutil.FormatMinutesHuman(row.TotalShiftMin))
		sb.WriteString(formatBuckets(row.DaySummary))
		sb.WriteString("\n")
	}

	return sb.String()
}
