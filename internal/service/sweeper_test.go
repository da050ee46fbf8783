package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/queue"
)

func seedOrder(t *testing.T, store *fakeOrderStore, age time.Duration) *model.Order {
	t.Helper()
	saved := store.now
	store.now = func() time.Time { return testNow.Add(-age) }
	defer func() { store.now = saved }()

	o := &model.Order{
		UserID:        7,
		TrainNumber:   "G1",
		CarriageIndex: 1,
		SeatNumber:    nextSeat(store),
		DepartDate:    testNow.AddDate(0, 0, 1),
	}
	require.NoError(t, store.Create(context.Background(), o))
	return o
}

func nextSeat(store *fakeOrderStore) int {
	return len(store.orders) + 1
}

func TestSweepCancelsOnlyExpiredOrders(t *testing.T) {
	store := newFakeOrderStore(func() time.Time { return testNow })
	events := &eventRecorder{}

	stale := seedOrder(t, store, 1801*time.Second)
	fresh := seedOrder(t, store, 1799*time.Second)

	sw := NewSweeper(store, 30*time.Minute, time.Minute, events.sink)
	sw.now = func() time.Time { return testNow }

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCanceled, got.Status)

	got, err = store.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderBooked, got.Status)

	require.Len(t, events.events, 1)
	assert.Equal(t, queue.EventOrderCanceled, events.events[0].Type)
	assert.Equal(t, stale.ID, events.events[0].OrderID)
}

func TestSweepSkipsPaidOrders(t *testing.T) {
	store := newFakeOrderStore(func() time.Time { return testNow })
	tickets := newFakeTicketStore(store)

	old := seedOrder(t, store, 2*time.Hour)
	_, err := tickets.Issue(context.Background(), old.ID)
	require.NoError(t, err)

	sw := NewSweeper(store, 30*time.Minute, time.Minute, nil)
	sw.now = func() time.Time { return testNow }

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := store.GetByID(context.Background(), old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, got.Status)
}

func TestSweepIsRepeatable(t *testing.T) {
	store := newFakeOrderStore(func() time.Time { return testNow })
	seedOrder(t, store, time.Hour)

	sw := NewSweeper(store, 30*time.Minute, time.Minute, nil)
	sw.now = func() time.Time { return testNow }

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Nothing left to cancel on the next pass.
	n, err = sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeperDefaults(t *testing.T) {
	sw := NewSweeper(newFakeOrderStore(func() time.Time { return testNow }), 0, 0, nil)
	assert.Equal(t, 30*time.Minute, sw.residence)
	assert.Equal(t, time.Minute, sw.interval)
}
