package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/repository"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// ErrNotFreeform means the line does not look like a freeform operation
// (fewer than two semicolon-delimited fields). Callers ignore it
// silently so ordinary chat never misfires as an operation.
var ErrNotFreeform = errors.New("input is not a freeform operation")

// Freeform is a single-line operation entry parsed positionally:
// "type; sku; quantity; minutes; comment". A quantity or minutes field
// that is present but not an integer is dropped to absent and noted in
// Annotations instead of rejecting the whole line.
type Freeform struct {
	Type        string
	Article     string
	Quantity    *int
	Minutes     *int
	Comment     string
	Annotations []string
}

// ParseFreeform parses one semicolon-delimited line. Fewer than two
// fields is not an operation at all; missing trailing fields default to
// absent; anything after the fifth field is folded into the comment.
func ParseFreeform(line string) (Freeform, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return Freeform{}, ErrNotFreeform
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	ff := Freeform{Type: fields[0]}

	if ff.Type == "" {
		return Freeform{}, ErrNotFreeform
	}

	if field := pick(fields, 1); field != AbsentSentinel {
		ff.Article = field
	}

	if field := pick(fields, 2); field != "" && field != AbsentSentinel {
		if qty, err := strconv.Atoi(field); err == nil && qty >= 0 {
			ff.Quantity = &qty
		} else {
			ff.Annotations = append(ff.Annotations, annotateQuantity(field))
		}
	}

	if field := pick(fields, 3); field != "" && field != AbsentSentinel {
		if minutes, err := strconv.Atoi(field); err == nil {
			minutes = timeutil.ClampMinutes(minutes)
			ff.Minutes = &minutes
		} else {
			ff.Annotations = append(ff.Annotations, annotateMinutes(field))
		}
	}

	if len(fields) > 4 {
		comment := strings.Join(fields[4:], "; ")
		if comment != AbsentSentinel {
			ff.Comment = comment
		}
	}

	return ff, nil
}

func pick(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// RecordFreeform records one operation from a freeform line. The path is
// ungated: no dialog and no open shift are required, only a resolved
// identity. The operation is stamped with the declared minutes (zero
// when absent) ending now.
func (e *Engine) RecordFreeform(ctx context.Context, userID int64, line string) (models.Operation, error) {
	ff, err := ParseFreeform(line)
	if err != nil {
		return models.Operation{}, err
	}

	if _, err = e.store.FindEmployee(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return models.Operation{}, ErrUnregistered
		}
		return models.Operation{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	now := e.now()
	minutes := 0
	if ff.Minutes != nil {
		minutes = *ff.Minutes
	}

	op := models.Operation{
		EmployeeID:  userID,
		Date:        timeutil.DayOf(now),
		Type:        ff.Type,
		Article:     ff.Article,
		Quantity:    ff.Quantity,
		StartedAt:   now.Add(-time.Duration(minutes) * time.Minute),
		EndedAt:     now,
		DurationMin: minutes,
		Comment:     joinComment(ff.Comment, ff.Annotations),
	}

	if shift, errShift := e.store.FindOpenShift(ctx, userID); errShift == nil {
		op.ShiftID = &shift.ID
	}

	if err = e.store.AppendOperation(ctx, op); err != nil {
		e.log.Error("Failed to record freeform operation", "user", userID, "error", err)
		return models.Operation{}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	e.log.Info("Freeform operation recorded", "user", userID, "type", op.Type, "minutes", op.DurationMin)
	return op, nil
}
