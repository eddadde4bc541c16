package dialog

import (
	"sync"
	"time"
)

// Step identifies where in the operation-entry dialog a session is.
// The flow is linear: type, article, quantity, finish signal, comment.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingType
	StepAwaitingArticle
	StepAwaitingQuantity
	StepAwaitingFinish
	StepAwaitingComment
)

// String returns a short name for logging.
func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingType:
		return "awaiting_type"
	case StepAwaitingArticle:
		return "awaiting_article"
	case StepAwaitingQuantity:
		return "awaiting_quantity"
	case StepAwaitingFinish:
		return "awaiting_finish"
	case StepAwaitingComment:
		return "awaiting_comment"
	default:
		return "unknown"
	}
}

// Session is the transient per-employee dialog state. It lives only in
// memory; nothing of it reaches the row store until the final commit.
type Session struct {
	Step        Step
	Type        string     // chosen operation type
	Article     string     // SKU, empty means absent
	Quantity    *int       // nil means absent, 0 is a valid value
	StartedAt   time.Time  // stamped the moment the type was chosen
	EndedAt     time.Time  // stamped by the finish signal or declared minutes
	DurationMin int        // measured or user-declared, set with EndedAt
	Annotations []string   // human-readable notes about degraded fields
}

// sessionStore keeps the active sessions keyed by Telegram ID. Handlers
// for one employee are serialized by the bot layer, so the mutex only
// protects the map itself.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*Session)}
}

func (st *sessionStore) get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[userID]
	return session, ok
}

func (st *sessionStore) put(userID int64, session *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions[userID] = session
}

func (st *sessionStore) delete(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, userID)
}
