package bot

import (
	"context"
	"errors"

	"gopkg.in/telebot.v4"

	"github.com/mkravets/skladbot/internal/dialog"
)

// addOperationHandler starts the operation-entry dialog. The engine
// checks the guards; this layer only translates them to replies.
func (b *Bot) addOperationHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User starts an operation dialog", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("add_operation").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	err := b.engine.Start(timeoutCtx, userID)
	switch {
	case err == nil:
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Что делал? Выбери тип или напиши свой.", buildTypeMenu())
	case errors.Is(err, dialog.ErrAlreadyInDialog):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Мы уже записываем операцию. Ответь на предыдущий вопрос или нажми «" + dialog.CancelToken + "».")
	case errors.Is(err, dialog.ErrUnregistered):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Сначала нажми /start, чтобы я тебя записал.")
	case errors.Is(err, dialog.ErrNoOpenShift):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Смена не запущена. Сначала нажми «"+btnStartShift+"».", buildMainMenu())
	default:
		b.log.Error("Failed to start dialog", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}
}

// advanceDialogHandler feeds the message into the active dialog and
// sends the prompt for whatever the engine awaits next.
func (b *Bot) advanceDialogHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	outcome, err := b.engine.Advance(timeoutCtx, userID, ctx.Text())
	if err != nil {
		if errors.Is(err, dialog.ErrCommitFailed) {
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(ErrInternal, buildMainMenu())
		}
		if errors.Is(err, dialog.ErrNotInDialog) {
			return b.freeformHandler(ctx)
		}
		b.log.Error("Failed to advance dialog", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal, buildMainMenu())
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()

	if outcome.Cancelled {
		return ctx.Send("Окей, ничего не записал.", buildMainMenu())
	}

	if outcome.Committed {
		b.metrics.OperationsLogged.WithLabelValues("dialog").Inc()
		return ctx.Send(formatOperationSaved(outcome.Operation), buildMainMenu())
	}

	switch outcome.Next {
	case dialog.StepAwaitingType:
		return ctx.Send("Не понял. Выбери тип операции или напиши свой.", buildTypeMenu())
	case dialog.StepAwaitingArticle:
		return ctx.Send("Какой артикул? Если не про артикул — отправь «-».", buildCancelMenu())
	case dialog.StepAwaitingQuantity:
		return ctx.Send("Сколько штук? Если не считается в штуках — отправь «-».", buildCancelMenu())
	case dialog.StepAwaitingFinish:
		if outcome.Retry {
			return ctx.Send("Не понял. Нажми «"+dialog.FinishToken+"» или напиши число минут.", buildFinishMenu())
		}
		return ctx.Send("Записываю время. Нажми «"+dialog.FinishToken+"», когда закончишь, или сразу напиши число минут.", buildFinishMenu())
	case dialog.StepAwaitingComment:
		return ctx.Send("Комментарий? Если нечего добавить — отправь «-».", buildCancelMenu())
	default:
		return ctx.Send("Главное меню 👇", buildMainMenu())
	}
}

// freeformHandler tries the one-line "type; sku; qty; minutes; comment"
// entry. Text that does not look like one gets the fallback prompt.
func (b *Bot) freeformHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	op, err := b.engine.RecordFreeform(timeoutCtx, userID, ctx.Text())
	switch {
	case err == nil:
		b.metrics.OperationsLogged.WithLabelValues("freeform").Inc()
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(formatOperationSaved(op), buildMainMenu())
	case errors.Is(err, dialog.ErrNotFreeform):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Я понимаю кнопки ниже или строку вида\n«Упаковка; АРТ-1; 10; 25; комментарий» 👇", buildMainMenu())
	case errors.Is(err, dialog.ErrUnregistered):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("Сначала нажми /start, чтобы я тебя записал.")
	default:
		b.log.Error("Failed to record freeform operation", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}
}
