// Package bot wires the Telegram transport to the dialog and
// aggregation engines. Everything the handlers need is injected through
// the constructor; the package holds no ambient state.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/mkravets/skladbot/internal/dialog"
	"github.com/mkravets/skladbot/internal/metrics"
	"github.com/mkravets/skladbot/internal/repository"
)

// ErrInternal is the generic reply for store failures: the worker can
// only retry later or escalate to the supervisor.
const ErrInternal = "🚫 Не получилось связаться с таблицей. Попробуй позже, а если повторится — скажи руководителю."

// Bot contains the bot API instance and other information.
type Bot struct {
	bot      *telebot.Bot
	log      *slog.Logger
	emrepo   repository.EmployeeManager
	shrepo   repository.ShiftManager
	oprepo   repository.OperationManager
	engine   *dialog.Engine
	metrics  *metrics.Metrics
	locks    *userLocks
	tz       *time.Location
	adminIDs map[int64]bool
}

// NewBot creates a new bot with the given token and dependencies.
func NewBot(
	log *slog.Logger,
	emrepo repository.EmployeeManager,
	shrepo repository.ShiftManager,
	oprepo repository.OperationManager,
	engine *dialog.Engine,
	appMetrics *metrics.Metrics,
	token string,
	poller time.Duration,
	tz *time.Location,
	adminIDs []int64,
) (*Bot, error) {
	tgBot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", tgBot.Me.Username)

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	botInstance := &Bot{
		bot:      tgBot,
		log:      log,
		emrepo:   emrepo,
		shrepo:   shrepo,
		oprepo:   oprepo,
		engine:   engine,
		metrics:  appMetrics,
		locks:    newUserLocks(),
		tz:       tz,
		adminIDs: admins,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Use(b.SerializeMiddleware)

	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/menu", b.menuHandler)
	b.bot.Handle("/report", b.reportHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)
}

// now returns the current time in the warehouse timezone; every row is
// stamped with it.
func (b *Bot) now() time.Time {
	return time.Now().In(b.tz)
}

// isAdmin reports whether the sender may pull all-employee reports.
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminIDs[userID]
}
