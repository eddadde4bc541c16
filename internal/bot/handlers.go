package bot

import (
	"context"
	"errors"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/mkravets/skladbot/internal/repository"
	"github.com/mkravets/skladbot/internal/timeutil"
)

const handlerTimeout = 3 * time.Second

// startHandler processes /start: registers the employee on first
// contact and shows the main menu.
func (b *Bot) startHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// A restart drops any half-finished dialog, like the old /start did.
	b.engine.Cancel(userID)

	_, err := b.emrepo.FindEmployee(timeoutCtx, userID)
	if errors.Is(err, repository.ErrEmployeeNotFound) {
		displayName := ctx.Sender().FirstName
		if ctx.Sender().LastName != "" {
			displayName += " " + ctx.Sender().LastName
		}

		startTime := time.Now()
		_, err = b.emrepo.RegisterEmployee(timeoutCtx, userID, ctx.Sender().Username, displayName, b.now())
		b.metrics.StoreDuration.WithLabelValues("register_employee").Observe(time.Since(startTime).Seconds())
		if err != nil {
			b.log.Error("Failed to register employee", "error", err, "user", userID)
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(ErrInternal)
		}

		b.metrics.NewEmployees.Inc()
		b.log.Info("New employee registered", "user", userID, "name", displayName)
	} else if err != nil {
		b.log.Error("Failed to look up employee", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	responseText := "Привет! Я бот для учёта работы на складе.\n\n" +
		"Через меня ты можешь:\n" +
		"• запускать и завершать смену\n" +
		"• фиксировать, что именно делал и сколько\n" +
		"• смотреть краткий итог за сегодня\n\n" +
		"Выбери действие с клавиатуры ниже 👇"
	return ctx.Send(responseText, buildMainMenu())
}

// menuHandler processes /menu: drops any dialog state and reshows the
// main keyboard.
func (b *Bot) menuHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("menu").Inc()
	b.engine.Cancel(ctx.Sender().ID)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("Главное меню 👇", buildMainMenu())
}

// startShiftHandler opens a shift for the employee.
func (b *Bot) startShiftHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User starts a shift", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("shift_start").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if _, err := b.emrepo.FindEmployee(timeoutCtx, userID); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("Сначала нажми /start, чтобы я тебя записал.")
		}
		b.log.Error("Failed to look up employee", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	startTime := time.Now()
	err := b.shrepo.OpenShift(timeoutCtx, userID, b.now())
	b.metrics.StoreDuration.WithLabelValues("open_shift").Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrShiftAlreadyOpen) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("Смена уже запущена. Когда закончишь — нажми «"+btnEndShift+"».", buildMainMenu())
		}
		b.log.Error("Failed to open shift", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("Смена запущена ✅\n\nКогда закончишь работу — нажми «"+btnEndShift+"».", buildMainMenu())
}

// endShiftHandler closes the employee's open shift and reports the
// worked time. Closing without an open shift writes nothing.
func (b *Bot) endShiftHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User ends a shift", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("shift_end").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	duration, err := b.shrepo.CloseShift(timeoutCtx, userID, b.now())
	b.metrics.StoreDuration.WithLabelValues("close_shift").Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenShift) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("Открытой смены нет. Чтобы начать — нажми «"+btnStartShift+"».", buildMainMenu())
		}
		b.log.Error("Failed to close shift", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	responseText := "Смена завершена ✅\n\nОтработано: " + timeutil.FormatMinutesHuman(duration) +
		"\nСпасибо за работу!"
	return ctx.Send(responseText, buildMainMenu())
}

// summaryHandler sends the employee their own summary for today.
func (b *Bot) summaryHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested today summary", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("summary").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	now := b.now()

	startTime := time.Now()
	shifts, err := b.shrepo.ShiftsForDay(timeoutCtx, userID, now)
	if err != nil {
		b.log.Error("Failed to fetch day shifts", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	ops, err := b.oprepo.OperationsForDay(timeoutCtx, userID, now)
	if err != nil {
		b.log.Error("Failed to fetch day operations", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}
	b.metrics.StoreDuration.WithLabelValues("day_rows").Observe(time.Since(startTime).Seconds())

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(formatDaySummary(now, shifts, ops), telebot.ModeMarkdown)
}

// routeTextHandler dispatches plain text: main menu buttons first, then
// an active dialog, then the freeform one-liner. Anything else gets the
// fallback prompt.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	text := ctx.Text()
	userID := ctx.Sender().ID

	switch text {
	case btnStartShift:
		return b.startShiftHandler(ctx)
	case btnEndShift:
		return b.endShiftHandler(ctx)
	case btnAddOperation:
		return b.addOperationHandler(ctx)
	case btnSummary:
		return b.summaryHandler(ctx)
	}

	if b.engine.InDialog(userID) {
		return b.advanceDialogHandler(ctx)
	}

	return b.freeformHandler(ctx)
}
