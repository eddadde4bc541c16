package models

import "time"

// Employee represents a warehouse worker known to the bot.
// The Telegram ID is the stable identity; everything else is taken
// from the Telegram profile on first contact and never edited after.
type Employee struct {
	ID           int64     // Telegram ID, stable identity of the worker
	Username     string    // Telegram handle, may be empty
	DisplayName  string    // Full name shown in summaries and reports
	RegisteredAt time.Time // Timestamp of the first contact with the bot
}
