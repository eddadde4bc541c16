package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/mkravets/skladbot/internal/report"
	"github.com/mkravets/skladbot/internal/summary"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// reportTimeout is longer than the ordinary handler timeout because the
// report pulls the whole day's rows for every employee.
const reportTimeout = 10 * time.Second

// reportHandler processes /report for supervisors: a per-employee text
// digest plus the same numbers as an XLSX document. An optional
// DD.MM.YYYY payload picks a past day; the default is today.
func (b *Bot) reportHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("report").Inc()

	if !b.isAdmin(userID) {
		b.log.Warn("Report requested by non-admin", "user", userID)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Эта команда доступна только руководителю.")
	}

	date := b.now()
	if payload := strings.TrimSpace(ctx.Message().Payload); payload != "" {
		parsed, err := time.ParseInLocation("02.01.2006", payload, b.tz)
		if err != nil {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("Не понял дату. Формат: /report 02.01.2006")
		}
		date = parsed
	}
	b.log.Info("Admin requested report", "user", userID, "date", timeutil.FormatDateDMY(date))

	timeoutCtx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	rows, err := b.buildAdminRows(timeoutCtx, date)
	if err != nil {
		b.log.Error("Failed to build report rows", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if err = ctx.Send(formatAdminSummary(date, rows), telebot.ModeMarkdown); err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	startTime := time.Now()
	buffer, err := report.GenerateDayReport(date, rows)
	b.metrics.ReportGeneration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.Error("Failed to generate XLSX report", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	document := &telebot.Document{
		File:     telebot.FromReader(buffer),
		FileName: fmt.Sprintf("report_%s.xlsx", date.Format("2006-01-02")),
		MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	b.metrics.SentMessages.WithLabelValues("document").Inc()
	return ctx.Send(document)
}

// buildAdminRows fetches the day's rows for every employee and folds
// them into the per-employee summaries.
func (b *Bot) buildAdminRows(ctx context.Context, date time.Time) ([]summary.EmployeeDaySummary, error) {
	startTime := time.Now()
	defer func() {
		b.metrics.StoreDuration.WithLabelValues("report_rows").Observe(time.Since(startTime).Seconds())
	}()

	shifts, err := b.shrepo.ShiftsOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	ops, err := b.oprepo.OperationsOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operations: %w", err)
	}

	employees, err := b.emrepo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}

	return summary.BuildAdminSummary(shifts, ops, employees, b.now()), nil
}
