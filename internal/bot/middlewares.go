package bot

import (
	"sync"

	"gopkg.in/telebot.v4"
)

// userLocks hands out one mutex per Telegram ID so that two events from
// the same employee are never handled concurrently. Different employees
// proceed in parallel.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

func (ul *userLocks) forUser(userID int64) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	lock, ok := ul.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		ul.locks[userID] = lock
	}
	return lock
}

// SerializeMiddleware serializes update handling per sender. The dialog
// session of one employee must never be touched by two handlers at
// once; holding only the sender's own lock keeps other employees
// unblocked during store calls.
func (b *Bot) SerializeMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		sender := ctx.Sender()
		if sender == nil {
			return next(ctx)
		}

		lock := b.locks.forUser(sender.ID)
		lock.Lock()
		defer lock.Unlock()

		return next(ctx)
	}
}
