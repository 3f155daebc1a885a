package repo

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/db"
	"fleet-relay/backend/app/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(db.Config{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "fleet.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func enqueue(t *testing.T, r *CommandRepository, deviceID, typ, data string) uint {
	t.Helper()
	cmd := &models.Command{DeviceID: deviceID, CommandType: typ, CommandData: data}
	require.NoError(t, r.Create(context.Background(), cmd))
	require.NotZero(t, cmd.ID)
	return cmd.ID
}

func TestCommandRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))

	a := enqueue(t, r, "dev-a", "ping", `{}`)
	b := enqueue(t, r, "dev-b", "ping", `{}`)
	assert.Greater(t, b, a)

	got, err := r.Get(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestCommandRepository_ClaimPendingOrdersByCreatedAtThenID(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	late := &models.Command{DeviceID: "dev", CommandType: "late", CommandData: `1`, CreatedAt: base.Add(2 * time.Second)}
	early := &models.Command{DeviceID: "dev", CommandType: "early", CommandData: `2`, CreatedAt: base}
	tieA := &models.Command{DeviceID: "dev", CommandType: "tie-a", CommandData: `3`, CreatedAt: base.Add(time.Second)}
	tieB := &models.Command{DeviceID: "dev", CommandType: "tie-b", CommandData: `4`, CreatedAt: base.Add(time.Second)}
	for _, c := range []*models.Command{late, early, tieA, tieB} {
		require.NoError(t, r.Create(ctx, c))
	}

	claimed, err := r.ClaimPending(ctx, "dev")
	require.NoError(t, err)
	require.Len(t, claimed, 4)
	var types []string
	for _, c := range claimed {
		types = append(types, c.CommandType)
		assert.Equal(t, models.StatusSent, c.Status)
	}
	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, types)
}

func TestCommandRepository_ClaimPendingIsScopedAndOneShot(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	ctx := context.Background()
	mine := enqueue(t, r, "dev-a", "ping", `{}`)
	other := enqueue(t, r, "dev-b", "ping", `{}`)

	claimed, err := r.ClaimPending(ctx, "dev-a")
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, mine, claimed[0].ID)

	again, err := r.ClaimPending(ctx, "dev-a")
	require.NoError(t, err)
	assert.Empty(t, again)

	untouched, err := r.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, untouched.Status)
}

func TestCommandRepository_ConcurrentClaimsDeliverEachCommandOnce(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	ctx := context.Background()

	const total = 40
	want := make(map[uint]bool, total)
	for i := 0; i < total; i++ {
		want[enqueue(t, r, "dev", "job", `{"n":1}`)] = true
	}

	const claimers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint]int)
		errs []error
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 3; round++ {
				got, err := r.ClaimPending(ctx, "dev")
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				}
				for _, c := range got {
					seen[c.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.True(t, want[id], "unexpected command %d", id)
		assert.Equal(t, 1, n, "command %d delivered %d times", id, n)
	}
}

func TestCommandRepository_MarkExecuted(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	ctx := context.Background()
	id := enqueue(t, r, "dev", "ping", `{}`)

	require.NoError(t, r.MarkExecuted(ctx, id))
	require.NoError(t, r.MarkExecuted(ctx, id))
	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuted, got.Status)

	err = r.MarkExecuted(ctx, id+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommandRepository_CancelledContextIsPersistenceError(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	enqueue(t, r, "dev", "ping", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ClaimPending(ctx, "dev")
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	still, err := r.ListByDevice(context.Background(), "dev", models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, still, 1)
}

func TestCommandRepository_ListByDeviceAndCounts(t *testing.T) {
	r := NewCommandRepository(openTestDB(t))
	ctx := context.Background()
	enqueue(t, r, "dev", "a", `{}`)
	enqueue(t, r, "dev", "b", `{}`)
	_, err := r.ClaimPending(ctx, "dev")
	require.NoError(t, err)
	enqueue(t, r, "dev", "c", `{}`)

	all, err := r.ListByDevice(ctx, "dev", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := r.ListByDevice(ctx, "dev", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c", pending[0].CommandType)

	counts, err := r.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.StatusSent])
	assert.Equal(t, int64(1), counts[models.StatusPending])
}
