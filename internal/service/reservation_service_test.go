package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/queue"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

// ----- in-memory fakes -----

type fakeUsers struct{ ids map[uint64]bool }

func (f *fakeUsers) Exists(_ context.Context, id uint64) (bool, error) {
	return f.ids[id], nil
}

type fakeCapacity struct {
	rows  map[string]*model.Capacity
	types map[uint64]*model.SeatType
}

func capKey(train string, carriage int) string { return fmt.Sprintf("%s/%d", train, carriage) }

func (f *fakeCapacity) For(_ context.Context, train string, carriage int) (*model.Capacity, error) {
	row, ok := f.rows[capKey(train, carriage)]
	if !ok || !row.Valid {
		return nil, repository.ErrCapacityNotFound
	}
	return row, nil
}

func (f *fakeCapacity) SeatType(_ context.Context, id uint64) (*model.SeatType, error) {
	st, ok := f.types[id]
	if !ok {
		return nil, repository.ErrCapacityNotFound
	}
	return st, nil
}

type fakeLocator struct{ journeys []model.Journey }

func (f *fakeLocator) At(_ context.Context, train string, stationID uint64) (*model.Journey, error) {
	for i := range f.journeys {
		j := f.journeys[i]
		if j.TrainNumber == train && j.StationID == stationID && j.Valid {
			return &j, nil
		}
	}
	return nil, fmt.Errorf("locate stop %s/%d: %w", train, stationID, repository.ErrJourneyNotFound)
}

// fakeOrderStore mirrors the locked SQL semantics: one mutex guards the
// conflict check + insert, so concurrent Create calls serialize the way
// FOR UPDATE row locks do.
type fakeOrderStore struct {
	mu     sync.Mutex
	seq    uint64
	orders map[uint64]*model.Order
	now    func() time.Time
}

func newFakeOrderStore(now func() time.Time) *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uint64]*model.Order), now: now}
}

func (f *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.orders {
		if ex.TrainNumber == o.TrainNumber && ex.CarriageIndex == o.CarriageIndex &&
			ex.SeatNumber == o.SeatNumber && ex.DepartDate.Equal(o.DepartDate) &&
			ex.Status != model.OrderCanceled {
			return repository.ErrSeatConflict
		}
	}
	f.seq++
	o.ID = f.seq
	o.Status = model.OrderBooked
	o.CreateDate = f.now()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) Cancel(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != model.OrderBooked {
		return repository.ErrInvalidState
	}
	o.Status = model.OrderCanceled
	return nil
}

func (f *fakeOrderStore) CountActive(_ context.Context, train string, carriage int, departDate time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.orders {
		if o.TrainNumber == train && o.CarriageIndex == carriage &&
			o.DepartDate.Equal(departDate) && o.Status != model.OrderCanceled {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderStore) CancelStale(_ context.Context, cutoff time.Time) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for _, o := range f.orders {
		if o.Status == model.OrderBooked && o.CreateDate.Before(cutoff) {
			o.Status = model.OrderCanceled
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

type fakeTicketStore struct {
	mu      sync.Mutex
	seq     uint64
	tickets map[uint64]*model.Ticket
	orders  *fakeOrderStore
}

func newFakeTicketStore(orders *fakeOrderStore) *fakeTicketStore {
	return &fakeTicketStore{tickets: make(map[uint64]*model.Ticket), orders: orders}
}

func (f *fakeTicketStore) Issue(_ context.Context, orderID uint64) (*model.Ticket, error) {
	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()
	o, ok := f.orders.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.Status != model.OrderBooked {
		return nil, repository.ErrInvalidState
	}
	o.Status = model.OrderPaid

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &model.Ticket{
		ID:            f.seq,
		OrderID:       orderID,
		TrainNumber:   o.TrainNumber,
		CarriageIndex: o.CarriageIndex,
		SeatNumber:    o.SeatNumber,
		DepartDate:    o.DepartDate,
	}
	f.tickets[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeTicketStore) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketStore) MarkPrinted(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.Printed = true
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []queue.OrderEvent
}

func (r *eventRecorder) sink(_ context.Context, ev queue.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// ----- fixture -----

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	stationWest  = uint64(1)
	stationEast  = uint64(2)
	stationSouth = uint64(3)
)

type engineFixture struct {
	svc     *ReservationService
	orders  *fakeOrderStore
	tickets *fakeTicketStore
	events  *eventRecorder
}

func newEngineFixture() *engineFixture {
	users := &fakeUsers{ids: map[uint64]bool{7: true}}
	capacity := &fakeCapacity{
		rows: map[string]*model.Capacity{
			capKey("G1", 1): {TrainNumber: "G1", CarriageIndex: 1, SeatCount: 4, SeatTypeID: 1, Valid: true},
		},
		types: map[uint64]*model.SeatType{
			1: {ID: 1, Name: "second class", BasePrice: 0.5},
		},
	}
	locator := &fakeLocator{journeys: []model.Journey{
		{ID: 10, TrainNumber: "G1", StationIndex: 1, StationID: stationWest, Distance: 0, Valid: true},
		{ID: 11, TrainNumber: "G1", StationIndex: 2, StationID: stationSouth, Distance: 90, Valid: true},
		{ID: 12, TrainNumber: "G1", StationIndex: 3, StationID: stationEast, Distance: 200, Valid: true},
	}}
	// north exists in the registry but G1 never stops there.
	stations := &fakeStationReader{
		byName: map[string]uint64{"west": stationWest, "south": stationSouth, "east": stationEast, "north": 13},
		byID: map[uint64]*model.Station{
			stationWest:  {ID: stationWest, Name: "west", Valid: true},
			stationSouth: {ID: stationSouth, Name: "south", Valid: true},
			stationEast:  {ID: stationEast, Name: "east", Valid: true},
			13:           {ID: 13, Name: "north", Valid: true},
		},
	}
	orders := newFakeOrderStore(func() time.Time { return testNow })
	tickets := newFakeTicketStore(orders)
	events := &eventRecorder{}

	svc := NewReservationService(users, capacity, locator, stations, orders, tickets, events.sink)
	svc.now = func() time.Time { return testNow }
	return &engineFixture{svc: svc, orders: orders, tickets: tickets, events: events}
}

func bookReq(seat int) BookRequest {
	return BookRequest{
		UserID:        7,
		TrainNumber:   "G1",
		CarriageIndex: 1,
		SeatNumber:    seat,
		DepartDate:    testNow.AddDate(0, 0, 1),
		DepartStation: "west",
		ArriveStation: "east",
	}
}

// ----- tests -----

func TestBookComputesFare(t *testing.T) {
	fx := newEngineFixture()

	order, err := fx.svc.Book(context.Background(), bookReq(2))
	require.NoError(t, err)

	assert.Equal(t, model.OrderBooked, order.Status)
	assert.Equal(t, uint64(10), order.DepartJourneyID)
	assert.Equal(t, uint64(12), order.ArriveJourneyID)
	assert.InDelta(t, 100.0, order.Price, 1e-9) // 0.5 per km over 200 km
	assert.Equal(t, []string{queue.EventOrderBooked}, fx.events.types())
}

func TestBookRejectsUnknownUser(t *testing.T) {
	fx := newEngineFixture()

	req := bookReq(1)
	req.UserID = 99
	_, err := fx.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestBookRejectsSeatOutOfRange(t *testing.T) {
	fx := newEngineFixture()

	for _, seat := range []int{0, 5} {
		_, err := fx.svc.Book(context.Background(), bookReq(seat))
		assert.True(t, repository.IsValidation(err), "seat %d: got %v", seat, err)
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	fx := newEngineFixture()

	req := bookReq(1)
	req.DepartDate = testNow.AddDate(0, 0, -1)
	_, err := fx.svc.Book(context.Background(), req)
	assert.True(t, repository.IsValidation(err), "got %v", err)

	// Same-day departure is allowed.
	req.DepartDate = testNow
	_, err = fx.svc.Book(context.Background(), req)
	assert.NoError(t, err)
}

func TestBookRejectsBackwardItinerary(t *testing.T) {
	fx := newEngineFixture()

	req := bookReq(1)
	req.DepartStation, req.ArriveStation = "east", "west"
	_, err := fx.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrInvalidItinerary)

	req.DepartStation, req.ArriveStation = "west", "west"
	_, err = fx.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrInvalidItinerary)
}

func TestBookRejectsStationOffRoute(t *testing.T) {
	fx := newEngineFixture()

	req := bookReq(1)
	req.TrainNumber = "G1"
	req.DepartStation = "west"
	req.ArriveStation = "south"
	_, err := fx.svc.Book(context.Background(), req)
	require.NoError(t, err) // south is on the route

	fx = newEngineFixture()
	req.ArriveStation = "nowhere"
	_, err = fx.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrStationNotFound)

	// A real station that G1 skips is an itinerary problem, not a
	// registry one, even when the store annotates the miss.
	fx = newEngineFixture()
	req.ArriveStation = "north"
	_, err = fx.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrInvalidItinerary)
}

func TestBookSeatConflict(t *testing.T) {
	fx := newEngineFixture()
	ctx := context.Background()

	first, err := fx.svc.Book(ctx, bookReq(3))
	require.NoError(t, err)

	_, err = fx.svc.Book(ctx, bookReq(3))
	assert.ErrorIs(t, err, repository.ErrSeatConflict)

	// A canceled order releases the seat.
	require.NoError(t, fx.svc.CancelOrder(ctx, first.ID))
	_, err = fx.svc.Book(ctx, bookReq(3))
	assert.NoError(t, err)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	fx := newEngineFixture()

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Book(context.Background(), bookReq(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case err == repository.ErrSeatConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestIssueTicketOnce(t *testing.T) {
	fx := newEngineFixture()
	ctx := context.Background()

	order, err := fx.svc.Book(ctx, bookReq(1))
	require.NoError(t, err)

	ticket, err := fx.svc.IssueTicket(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, ticket.OrderID)
	assert.Equal(t, order.SeatNumber, ticket.SeatNumber)
	assert.False(t, ticket.Printed)

	paid, err := fx.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, paid.Status)

	// Paying twice must not mint a second ticket.
	_, err = fx.svc.IssueTicket(ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	assert.Equal(t, []string{queue.EventOrderBooked, queue.EventOrderPaid}, fx.events.types())
}

func TestIssueTicketUnknownOrder(t *testing.T) {
	fx := newEngineFixture()

	_, err := fx.svc.IssueTicket(context.Background(), 12345)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestMarkPrintedIdempotent(t *testing.T) {
	fx := newEngineFixture()
	ctx := context.Background()

	order, err := fx.svc.Book(ctx, bookReq(1))
	require.NoError(t, err)
	ticket, err := fx.svc.IssueTicket(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, fx.svc.MarkPrinted(ctx, ticket.ID))
	require.NoError(t, fx.svc.MarkPrinted(ctx, ticket.ID)) // reprints succeed

	got, err := fx.svc.Ticket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, got.Printed)

	assert.ErrorIs(t, fx.svc.MarkPrinted(ctx, 999), repository.ErrTicketNotFound)
}

func TestCancelOrderTerminal(t *testing.T) {
	fx := newEngineFixture()
	ctx := context.Background()

	order, err := fx.svc.Book(ctx, bookReq(1))
	require.NoError(t, err)

	require.NoError(t, fx.svc.CancelOrder(ctx, order.ID))
	assert.ErrorIs(t, fx.svc.CancelOrder(ctx, order.ID), repository.ErrInvalidState)

	// A paid order cannot be canceled either.
	order2, err := fx.svc.Book(ctx, bookReq(2))
	require.NoError(t, err)
	_, err = fx.svc.IssueTicket(ctx, order2.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, fx.svc.CancelOrder(ctx, order2.ID), repository.ErrInvalidState)
}

func TestRemainingSeats(t *testing.T) {
	fx := newEngineFixture()
	ctx := context.Background()
	date := testNow.AddDate(0, 0, 1)

	n, err := fx.svc.RemainingSeats(ctx, "G1", 1, date)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = fx.svc.Book(ctx, bookReq(1))
	require.NoError(t, err)
	_, err = fx.svc.Book(ctx, bookReq(2))
	require.NoError(t, err)

	n, err = fx.svc.RemainingSeats(ctx, "G1", 1, date)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Another departure date has its own inventory.
	n, err = fx.svc.RemainingSeats(ctx, "G1", 1, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = fx.svc.RemainingSeats(ctx, "G1", 9, date)
	assert.ErrorIs(t, err, repository.ErrCapacityNotFound)
}
