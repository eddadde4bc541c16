package dialog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/repository"
)

type fakeStore struct {
	employees map[int64]models.Employee
	openShift map[int64]models.Shift
	appended  []models.Operation

	employeeErr error
	shiftErr    error
	appendErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees: make(map[int64]models.Employee),
		openShift: make(map[int64]models.Shift),
	}
}

func (f *fakeStore) FindEmployee(_ context.Context, telegramID int64) (models.Employee, error) {
	if f.employeeErr != nil {
		return models.Employee{}, f.employeeErr
	}
	employee, ok := f.employees[telegramID]
	if !ok {
		return models.Employee{}, repository.ErrEmployeeNotFound
	}
	return employee, nil
}

func (f *fakeStore) FindOpenShift(_ context.Context, telegramID int64) (models.Shift, error) {
	if f.shiftErr != nil {
		return models.Shift{}, f.shiftErr
	}
	shift, ok := f.openShift[telegramID]
	if !ok {
		return models.Shift{}, repository.ErrNoOpenShift
	}
	return shift, nil
}

func (f *fakeStore) AppendOperation(_ context.Context, op models.Operation) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, op)
	return nil
}

const testUserID = int64(12345)

func newTestEngine(store *fakeStore) *Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(log, store)
}

func registeredStoreWithShift() *fakeStore {
	store := newFakeStore()
	store.employees[testUserID] = models.Employee{ID: testUserID, DisplayName: "Иван Петров"}
	store.openShift[testUserID] = models.Shift{ID: 7, EmployeeID: testUserID}
	return store
}

func TestStart_Guards(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("unregistered employee is rejected", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine(newFakeStore())

		err := engine.Start(ctx, testUserID)

		require.ErrorIs(t, err, ErrUnregistered)
		assert.False(t, engine.InDialog(testUserID))
	})

	t.Run("no open shift is rejected", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.employees[testUserID] = models.Employee{ID: testUserID}
		engine := newTestEngine(store)

		err := engine.Start(ctx, testUserID)

		require.ErrorIs(t, err, ErrNoOpenShift)
		assert.False(t, engine.InDialog(testUserID))
	})

	t.Run("second dialog is rejected and the first is untouched", func(t *testing.T) {
		t.Parallel()
		store := registeredStoreWithShift()
		engine := newTestEngine(store)

		require.NoError(t, engine.Start(ctx, testUserID))
		outcome, err := engine.Advance(ctx, testUserID, models.OpTypeAssembly)
		require.NoError(t, err)
		require.Equal(t, StepAwaitingArticle, outcome.Next)

		err = engine.Start(ctx, testUserID)

		require.ErrorIs(t, err, ErrAlreadyInDialog)
		step, ok := engine.CurrentStep(testUserID)
		require.True(t, ok)
		assert.Equal(t, StepAwaitingArticle, step)
	})

	t.Run("store failure maps to StoreUnavailable", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.employeeErr = assert.AnError
		engine := newTestEngine(store)

		err := engine.Start(ctx, testUserID)

		require.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestAdvance_MeasuredFlow(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := registeredStoreWithShift()
	engine := newTestEngine(store)

	start := time.Date(2025, time.March, 3, 9, 5, 0, 0, time.UTC)
	current := start
	engine.now = func() time.Time { return current }

	require.NoError(t, engine.Start(ctx, testUserID))

	outcome, err := engine.Advance(ctx, testUserID, models.OpTypeAssembly)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingArticle, outcome.Next)

	outcome, err = engine.Advance(ctx, testUserID, "123-ABC")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingQuantity, outcome.Next)

	outcome, err = engine.Advance(ctx, testUserID, "10")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingFinish, outcome.Next)

	current = start.Add(20 * time.Minute)
	outcome, err = engine.Advance(ctx, testUserID, FinishToken)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingComment, outcome.Next)

	outcome, err = engine.Advance(ctx, testUserID, "заказ WB123")
	require.NoError(t, err)
	require.True(t, outcome.Committed)
	assert.Equal(t, StepIdle, outcome.Next)
	assert.False(t, engine.InDialog(testUserID))

	require.Len(t, store.appended, 1)
	op := store.appended[0]
	assert.Equal(t, models.OpTypeAssembly, op.Type)
	assert.Equal(t, "123-ABC", op.Article)
	require.NotNil(t, op.Quantity)
	assert.Equal(t, 10, *op.Quantity)
	assert.Equal(t, 20, op.DurationMin)
	assert.Equal(t, start, op.StartedAt)
	assert.Equal(t, "заказ WB123", op.Comment)
	require.NotNil(t, op.ShiftID)
	assert.Equal(t, int64(7), *op.ShiftID)
}

func TestAdvance_DeclaredMinutes(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := registeredStoreWithShift()
	engine := newTestEngine(store)

	require.NoError(t, engine.Start(ctx, testUserID))

	for _, input := range []string{models.OpTypePacking, "-", "-"} {
		_, err := engine.Advance(ctx, testUserID, input)
		require.NoError(t, err)
	}

	outcome, err := engine.Advance(ctx, testUserID, "45")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingComment, outcome.Next)

	outcome, err = engine.Advance(ctx, testUserID, "-")
	require.NoError(t, err)
	require.True(t, outcome.Committed)

	require.Len(t, store.appended, 1)
	op := store.appended[0]
	assert.Equal(t, 45, op.DurationMin)
	assert.Empty(t, op.Article)
	assert.Nil(t, op.Quantity)
	assert.Empty(t, op.Comment)
}

func TestAdvance_QuantityEdgeCases(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("zero is a valid quantity distinct from absent", func(t *testing.T) {
		t.Parallel()
		store := registeredStoreWithShift()
		engine := newTestEngine(store)

		require.NoError(t, engine.Start(ctx, testUserID))
		for _, input := range []string{models.OpTypeOther, "-", "0", "15", "-"} {
			_, err := engine.Advance(ctx, testUserID, input)
			require.NoError(t, err)
		}

		require.Len(t, store.appended, 1)
		require.NotNil(t, store.appended[0].Quantity)
		assert.Equal(t, 0, *store.appended[0].Quantity)
	})

	t.Run("unparsable quantity degrades to an annotation", func(t *testing.T) {
		t.Parallel()
		store := registeredStoreWithShift()
		engine := newTestEngine(store)

		require.NoError(t, engine.Start(ctx, testUserID))
		for _, input := range []string{models.OpTypeAssembly, "A-1", "abc", "10", "коробка мятая"} {
			_, err := engine.Advance(ctx, testUserID, input)
			require.NoError(t, err)
		}

		require.Len(t, store.appended, 1)
		op := store.appended[0]
		assert.Nil(t, op.Quantity)
		assert.Contains(t, op.Comment, "abc")
		assert.Contains(t, op.Comment, "коробка мятая")
	})

	t.Run("unparsable finish input re-prompts the same step", func(t *testing.T) {
		t.Parallel()
		store := registeredStoreWithShift()
		engine := newTestEngine(store)

		require.NoError(t, engine.Start(ctx, testUserID))
		for _, input := range []string{models.OpTypeAssembly, "-", "-"} {
			_, err := engine.Advance(ctx, testUserID, input)
			require.NoError(t, err)
		}

		outcome, err := engine.Advance(ctx, testUserID, "скоро закончу")
		require.NoError(t, err)
		assert.True(t, outcome.Retry)
		assert.Equal(t, StepAwaitingFinish, outcome.Next)
		assert.Empty(t, store.appended)
	})
}

func TestAdvance_CancelClearsState(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := registeredStoreWithShift()
	engine := newTestEngine(store)

	steps := [][]string{
		{},
		{models.OpTypeAssembly},
		{models.OpTypeAssembly, "123-ABC"},
		{models.OpTypeAssembly, "123-ABC", "5"},
		{models.OpTypeAssembly, "123-ABC", "5", FinishToken},
	}

	for _, inputs := range steps {
		require.NoError(t, engine.Start(ctx, testUserID))
		for _, input := range inputs {
			_, err := engine.Advance(ctx, testUserID, input)
			require.NoError(t, err)
		}

		outcome, err := engine.Advance(ctx, testUserID, CancelToken)
		require.NoError(t, err)
		assert.True(t, outcome.Cancelled)
		assert.False(t, engine.InDialog(testUserID))

		// A fresh dialog must start from scratch with no leaked fields.
		require.NoError(t, engine.Start(ctx, testUserID))
		step, ok := engine.CurrentStep(testUserID)
		require.True(t, ok)
		assert.Equal(t, StepAwaitingType, step)
		session, _ := engine.sessions.get(testUserID)
		assert.Empty(t, session.Type)
		assert.Empty(t, session.Article)
		assert.Nil(t, session.Quantity)
		engine.Cancel(testUserID)
	}

	assert.Empty(t, store.appended)
}

func TestAdvance_CommitFailureClearsSession(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := registeredStoreWithShift()
	store.appendErr = assert.AnError
	engine := newTestEngine(store)

	require.NoError(t, engine.Start(ctx, testUserID))
	for _, input := range []string{models.OpTypeAssembly, "-", "-", "10"} {
		_, err := engine.Advance(ctx, testUserID, input)
		require.NoError(t, err)
	}

	_, err := engine.Advance(ctx, testUserID, "-")

	require.ErrorIs(t, err, ErrCommitFailed)
	assert.False(t, engine.InDialog(testUserID), "no partial state may survive a failed commit")
	assert.Empty(t, store.appended)
}

func TestAdvance_WithoutSession(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(registeredStoreWithShift())

	_, err := engine.Advance(t.Context(), testUserID, "что-то")

	require.ErrorIs(t, err, ErrNotInDialog)
}
