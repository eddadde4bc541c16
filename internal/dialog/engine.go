// Package dialog implements the operation-entry state machine. One
// engine instance serves every employee; each employee has at most one
// session at a time, advanced step by step until the accumulated fields
// are committed to the row store as a single operation record.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/repository"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// Reserved input tokens. CancelToken aborts at every step without
// writing anything; FinishToken closes the timed operation; the absent
// sentinel skips an optional field.
const (
	CancelToken    = "❌ Отмена"
	FinishToken    = "✅ Готово"
	AbsentSentinel = "-"
)

var (
	// ErrUnregistered means the identity does not resolve to an employee row.
	ErrUnregistered = errors.New("employee is not registered")
	// ErrNoOpenShift means the guard for starting a dialog failed: no shift is open.
	ErrNoOpenShift = errors.New("no open shift")
	// ErrAlreadyInDialog means a session for this employee is already in progress.
	ErrAlreadyInDialog = errors.New("dialog already in progress")
	// ErrNotInDialog means an advance was attempted without an active session.
	ErrNotInDialog = errors.New("no dialog in progress")
	// ErrStoreUnavailable wraps any row-store failure outside the final commit.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrCommitFailed means the final append failed; the session is cleared anyway.
	ErrCommitFailed = errors.New("failed to commit operation")
)

// Store is the slice of the repository the engine needs.
type Store interface {
	FindEmployee(ctx context.Context, telegramID int64) (models.Employee, error)
	FindOpenShift(ctx context.Context, telegramID int64) (models.Shift, error)
	AppendOperation(ctx context.Context, op models.Operation) error
}

// Outcome describes what a single input did to the session.
type Outcome struct {
	Next      Step             // step the session is awaiting now, StepIdle when gone
	Committed bool             // the operation record was appended
	Cancelled bool             // the session was discarded via the cancel token
	Retry     bool             // input was not understood, same step is re-prompted
	Operation models.Operation // the committed record, valid when Committed
}

// Engine drives the per-employee dialogs against the row store.
type Engine struct {
	log      *slog.Logger
	store    Store
	sessions *sessionStore
	now      func() time.Time
}

// NewEngine creates the dialog engine. The store is injected; the engine
// never reaches for ambient state.
func NewEngine(log *slog.Logger, store Store) *Engine {
	return &Engine{
		log:      log,
		store:    store,
		sessions: newSessionStore(),
		now:      time.Now,
	}
}

// InDialog reports whether the employee currently has an active session.
func (e *Engine) InDialog(userID int64) bool {
	_, ok := e.sessions.get(userID)
	return ok
}

// CurrentStep returns the step an active session is awaiting.
func (e *Engine) CurrentStep(userID int64) (Step, bool) {
	session, ok := e.sessions.get(userID)
	if !ok {
		return StepIdle, false
	}
	return session.Step, true
}

// Start opens a new dialog for the employee after checking the guards:
// the identity must resolve, a shift must be open, and no other dialog
// may be in progress. On success the session awaits the operation type.
func (e *Engine) Start(ctx context.Context, userID int64) error {
	if _, ok := e.sessions.get(userID); ok {
		return ErrAlreadyInDialog
	}

	if _, err := e.store.FindEmployee(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return ErrUnregistered
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if _, err := e.store.FindOpenShift(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNoOpenShift) {
			return ErrNoOpenShift
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	e.sessions.put(userID, &Session{Step: StepAwaitingType})
	e.log.Info("Dialog started", "user", userID)

	return nil
}

// Cancel discards the employee's session, if any. It always succeeds.
func (e *Engine) Cancel(userID int64) {
	e.sessions.delete(userID)
}

// Advance feeds one input token into the employee's session. The cancel
// token works at every step and discards all partial state. On the
// terminal step the accumulated fields are committed as one operation
// row; whether the append succeeds or not, the session is cleared.
func (e *Engine) Advance(ctx context.Context, userID int64, input string) (Outcome, error) {
	session, ok := e.sessions.get(userID)
	if !ok {
		return Outcome{}, ErrNotInDialog
	}

	input = strings.TrimSpace(input)

	if input == CancelToken {
		e.sessions.delete(userID)
		e.log.Info("Dialog cancelled", "user", userID, "step", session.Step)
		return Outcome{Next: StepIdle, Cancelled: true}, nil
	}

	switch session.Step {
	case StepAwaitingType:
		if input == "" {
			return Outcome{Next: StepAwaitingType, Retry: true}, nil
		}
		session.Type = input
		session.StartedAt = e.now()
		session.Step = StepAwaitingArticle
		return Outcome{Next: StepAwaitingArticle}, nil

	case StepAwaitingArticle:
		if input != AbsentSentinel {
			session.Article = input
		}
		session.Step = StepAwaitingQuantity
		return Outcome{Next: StepAwaitingQuantity}, nil

	case StepAwaitingQuantity:
		if input != AbsentSentinel {
			if qty, err := strconv.Atoi(input); err == nil && qty >= 0 {
				session.Quantity = &qty
			} else {
				session.Annotations = append(session.Annotations, annotateQuantity(input))
			}
		}
		session.Step = StepAwaitingFinish
		return Outcome{Next: StepAwaitingFinish}, nil

	case StepAwaitingFinish:
		end := e.now()
		if input == FinishToken {
			session.DurationMin = timeutil.ElapsedMinutes(session.StartedAt, end)
		} else {
			minutes, err := strconv.Atoi(input)
			if err != nil {
				return Outcome{Next: StepAwaitingFinish, Retry: true}, nil
			}
			session.DurationMin = timeutil.ClampMinutes(minutes)
		}
		session.EndedAt = end
		session.Step = StepAwaitingComment
		return Outcome{Next: StepAwaitingComment}, nil

	case StepAwaitingComment:
		comment := ""
		if input != AbsentSentinel {
			comment = input
		}
		return e.commit(ctx, userID, session, comment)

	default:
		e.sessions.delete(userID)
		return Outcome{}, ErrNotInDialog
	}
}

// commit turns the session into an operation row and appends it. The
// session is cleared first so that no partial state survives a failure.
func (e *Engine) commit(ctx context.Context, userID int64, session *Session, comment string) (Outcome, error) {
	e.sessions.delete(userID)

	op := models.Operation{
		EmployeeID:  userID,
		Date:        timeutil.DayOf(session.StartedAt),
		Type:        session.Type,
		Article:     session.Article,
		Quantity:    session.Quantity,
		StartedAt:   session.StartedAt,
		EndedAt:     session.EndedAt,
		DurationMin: session.DurationMin,
		Comment:     joinComment(comment, session.Annotations),
	}

	if shift, err := e.store.FindOpenShift(ctx, userID); err == nil {
		op.ShiftID = &shift.ID
	}

	if err := e.store.AppendOperation(ctx, op); err != nil {
		e.log.Error("Failed to commit operation", "user", userID, "error", err)
		return Outcome{Next: StepIdle}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	e.log.Info("Operation recorded", "user", userID, "type", op.Type, "minutes", op.DurationMin)
	return Outcome{Next: StepIdle, Committed: true, Operation: op}, nil
}

func annotateQuantity(token string) string {
	return fmt.Sprintf("количество не распознано: %s", token)
}

func annotateMinutes(token string) string {
	return fmt.Sprintf("минуты не распознаны: %s", token)
}

// joinComment appends the degradation annotations to the user's comment
// so that nothing typed is silently lost.
func joinComment(comment string, annotations []string) string {
	parts := make([]string, 0, 1+len(annotations))
	if comment != "" {
		parts = append(parts, comment)
	}
	parts = append(parts, annotations...)
	return strings.Join(parts, "; ")
}
