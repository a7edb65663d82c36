package expenses

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	testingpkg "github.com/smasshh/finmate/internal/testing"
)

type recordingListener struct {
	mu    sync.Mutex
	users []string
}

func (l *recordingListener) OnExpensesChanged(_ context.Context, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = append(l.users, userID)
}

func setupService(t *testing.T) (*Service, *testingpkg.MockEventEmitter, *recordingListener) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	t.Cleanup(cleanup)

	emitter := testingpkg.NewMockEventEmitter()
	listener := &recordingListener{}
	svc := NewService(NewRepository(db.Conn(), zerolog.Nop()), emitter, zerolog.Nop())
	svc.SetChangeListener(listener)
	return svc, emitter, listener
}

func TestService_CRUD(t *testing.T) {
	svc, emitter, listener := setupService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, "alice", Input{Category: "Food", Amount: 12.5, Date: "2024-03-01", Description: "lunch"})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	updated, err := svc.Update(ctx, "alice", e.ID, Input{Category: "Dining", Amount: 20, Date: "2024-03-02"})
	require.NoError(t, err)
	assert.Equal(t, "Dining", updated.Category)
	assert.Equal(t, 20.0, updated.Amount)

	_, err = svc.Update(ctx, "bob", e.ID, Input{Category: "Dining", Amount: 1, Date: "2024-03-02"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", e.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "alice", e.ID))

	list, err := svc.List("alice", Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	recorded := emitter.OfType(events.ExpenseRecorded)
	require.Len(t, recorded, 3)
	assert.Equal(t, "deleted", recorded[2].Data.(*events.ExpenseRecordedData).Action)
	assert.Equal(t, []string{"alice", "alice", "alice"}, listener.users)
}

func TestService_ListFiltersAndScopes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for _, in := range []Input{
		{Category: "Food", Amount: 10, Date: "2024-01-15"},
		{Category: "Food", Amount: 20, Date: "2024-02-15"},
		{Category: "Rent", Amount: 900, Date: "2024-02-01"},
	} {
		_, err := svc.Create(ctx, "alice", in)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "bob", Input{Category: "Food", Amount: 99, Date: "2024-02-10"})
	require.NoError(t, err)

	feb, err := svc.List("alice", Filter{From: "2024-02-01", To: "2024-02-29"})
	require.NoError(t, err)
	require.Len(t, feb, 2)
	assert.Equal(t, "2024-02-15", feb[0].Date)

	food, err := svc.List("alice", Filter{Category: "Food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	summary, err := svc.Summary("alice", Filter{})
	require.NoError(t, err)
	assert.Equal(t, 930.0, summary.Total)

	_, err = svc.List("alice", Filter{From: "2024-03-01", To: "2024-02-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_CreateRejectsInvalidInput(t *testing.T) {
	svc, emitter, _ := setupService(t)

	_, err := svc.Create(context.Background(), "alice", Input{Category: "Food", Amount: 0, Date: "2024-01-01"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, emitter.Events())
}
