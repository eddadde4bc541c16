package bot

import (
	"gopkg.in/telebot.v4"

	"github.com/mkravets/skladbot/internal/dialog"
	"github.com/mkravets/skladbot/internal/models"
)

// Main menu button labels. The text router matches on them verbatim.
const (
	btnStartShift   = "🟢 Начать смену"
	btnEndShift     = "🔴 Завершить смену"
	btnAddOperation = "➕ Добавить операцию"
	btnSummary      = "📊 Итог за сегодня"
)

// buildMainMenu creates the four-button main keyboard every worker sees.
func buildMainMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(btnStartShift), menu.Text(btnEndShift)),
		menu.Row(menu.Text(btnAddOperation), menu.Text(btnSummary)),
	)

	return menu
}

// buildTypeMenu creates the operation-type keyboard for the first
// dialog step. Free-text types are still accepted as plain messages.
func buildTypeMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(models.OpTypeAssembly)),
		menu.Row(menu.Text(models.OpTypePacking)),
		menu.Row(menu.Text(models.OpTypeOther)),
		menu.Row(menu.Text(dialog.CancelToken)),
	)

	return menu
}

// buildCancelMenu creates the keyboard for the middle dialog steps.
func buildCancelMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(menu.Row(menu.Text(dialog.CancelToken)))

	return menu
}

// buildFinishMenu creates the keyboard for the finish step: the worker
// either presses the finish button or types the minutes spent.
func buildFinishMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(dialog.FinishToken)),
		menu.Row(menu.Text(dialog.CancelToken)),
	)

	return menu
}
