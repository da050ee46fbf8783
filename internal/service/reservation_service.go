package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/queue"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

// UserChecker answers existence checks for booking validation.  The
// credential side of user management lives outside the engine.
type UserChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// CapacityReader reads seat inventory and pricing reference data.
type CapacityReader interface {
	For(ctx context.Context, train string, carriage int) (*model.Capacity, error)
	SeatType(ctx context.Context, id uint64) (*model.SeatType, error)
}

// JourneyLocator resolves one train's stop at one station.
type JourneyLocator interface {
	At(ctx context.Context, train string, stationID uint64) (*model.Journey, error)
}

// OrderStore is the order half of the reservation store.  Create must
// perform the seat-conflict check and the insert atomically; Cancel and
// the ticket transitions must lock the order row first.  The MySQL
// implementation lives in the repository package.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	Cancel(ctx context.Context, id uint64) error
	CountActive(ctx context.Context, train string, carriage int, departDate time.Time) (int, error)
}

// TicketStore issues tickets and flips their printed flag.
type TicketStore interface {
	Issue(ctx context.Context, orderID uint64) (*model.Ticket, error)
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	MarkPrinted(ctx context.Context, id uint64) error
}

// EventSink receives order lifecycle events.  Publishing is best-effort:
// the engine logs and ignores sink errors, a booking never fails because
// the broker is down.
type EventSink func(ctx context.Context, ev queue.OrderEvent) error

// BookRequest carries the caller's booking parameters.  Stations are
// passed by name, matching the public search surface.
type BookRequest struct {
	UserID        uint64
	TrainNumber   string
	CarriageIndex int
	SeatNumber    int
	DepartDate    time.Time
	DepartStation string
	ArriveStation string
}

// ReservationService owns the order/ticket lifecycle.  It is the only
// writer of order and ticket state; all mutation goes through its four
// entry points (Book, IssueTicket, MarkPrinted, CancelOrder).
type ReservationService struct {
	users    UserChecker
	capacity CapacityReader
	journeys JourneyLocator
	stations StationReader
	orders   OrderStore
	tickets  TicketStore
	events   EventSink // optional
	now      func() time.Time
}

func NewReservationService(users UserChecker, capacity CapacityReader, journeys JourneyLocator, stations StationReader, orders OrderStore, tickets TicketStore, events EventSink) *ReservationService {
	return &ReservationService{
		users:    users,
		capacity: capacity,
		journeys: journeys,
		stations: stations,
		orders:   orders,
		tickets:  tickets,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Book validates the request and creates a BOOKED order.  All
// validations are reads; the only write is the atomic conflict-check +
// insert in the order store, so a failed validation persists nothing.
// Of two concurrent calls for the same (train, carriage, seat, date)
// exactly one succeeds; the other receives ErrSeatConflict.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (*model.Order, error) {
	ok, err := s.users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	capRow, err := s.capacity.For(ctx, req.TrainNumber, req.CarriageIndex)
	if err != nil {
		return nil, err
	}
	if req.SeatNumber < 1 || req.SeatNumber > capRow.SeatCount {
		return nil, &repository.ValidationError{
			Field:  "seat_number",
			Reason: "out of range for carriage",
		}
	}

	today := truncateToDate(s.now())
	if truncateToDate(req.DepartDate).Before(today) {
		return nil, &repository.ValidationError{
			Field:  "depart_date",
			Reason: "departure date is in the past",
		}
	}

	depart, arrive, err := s.resolveItinerary(ctx, req.TrainNumber, req.DepartStation, req.ArriveStation)
	if err != nil {
		return nil, err
	}

	seatType, err := s.capacity.SeatType(ctx, capRow.SeatTypeID)
	if err != nil {
		return nil, err
	}
	price := Fare(seatType.BasePrice, depart, arrive)

	order := &model.Order{
		UserID:          req.UserID,
		TrainNumber:     req.TrainNumber,
		CarriageIndex:   req.CarriageIndex,
		SeatNumber:      req.SeatNumber,
		DepartDate:      truncateToDate(req.DepartDate),
		DepartJourneyID: depart.ID,
		ArriveJourneyID: arrive.ID,
		Price:           price,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.OrderEvent{
		Type:          queue.EventOrderBooked,
		OrderID:       order.ID,
		UserID:        order.UserID,
		TrainNumber:   order.TrainNumber,
		CarriageIndex: order.CarriageIndex,
		SeatNumber:    order.SeatNumber,
		DepartDate:    order.DepartDate.Format("2006-01-02"),
		Price:         order.Price,
	})
	return order, nil
}

// IssueTicket finalizes payment for a BOOKED order: the order
// transitions to PAID and the derived ticket is created, atomically.  An
// order that lost a race with the expiry sweeper surfaces
// ErrInvalidState here.
func (s *ReservationService) IssueTicket(ctx context.Context, orderID uint64) (*model.Ticket, error) {
	t, err := s.tickets.Issue(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.OrderEvent{
		Type:          queue.EventOrderPaid,
		OrderID:       orderID,
		TrainNumber:   t.TrainNumber,
		CarriageIndex: t.CarriageIndex,
		SeatNumber:    t.SeatNumber,
		DepartDate:    t.DepartDate.Format("2006-01-02"),
		TicketID:      t.ID,
	})
	return t, nil
}

// MarkPrinted sets the printed flag on a ticket.  Double-printing is
// reported as success both times; there is no single-print guard.
func (s *ReservationService) MarkPrinted(ctx context.Context, ticketID uint64) error {
	return s.tickets.MarkPrinted(ctx, ticketID)
}

// CancelOrder cancels a BOOKED order explicitly.
func (s *ReservationService) CancelOrder(ctx context.Context, orderID uint64) error {
	if err := s.orders.Cancel(ctx, orderID); err != nil {
		return err
	}
	s.publish(ctx, queue.OrderEvent{Type: queue.EventOrderCanceled, OrderID: orderID})
	return nil
}

// Order fetches a single order.
func (s *ReservationService) Order(ctx context.Context, id uint64) (*model.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Ticket fetches a single ticket.
func (s *ReservationService) Ticket(ctx context.Context, id uint64) (*model.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Orders lists a user's orders, newest first.
func (s *ReservationService) Orders(ctx context.Context, userID uint64) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// RemainingSeats reports the free seat count of one carriage for one
// departure date: total seats minus orders still occupying inventory.
// Never negative.
func (s *ReservationService) RemainingSeats(ctx context.Context, train string, carriage int, departDate time.Time) (int, error) {
	capRow, err := s.capacity.For(ctx, train, carriage)
	if err != nil {
		return 0, err
	}
	used, err := s.orders.CountActive(ctx, train, carriage, truncateToDate(departDate))
	if err != nil {
		return 0, err
	}
	remaining := capRow.SeatCount - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// resolveItinerary loads the depart and arrive journey rows and verifies
// they form a forward segment of the train's route.
func (s *ReservationService) resolveItinerary(ctx context.Context, train, departStation, arriveStation string) (*model.Journey, *model.Journey, error) {
	departID, err := s.stations.IDByName(ctx, departStation)
	if err != nil {
		return nil, nil, err
	}
	arriveID, err := s.stations.IDByName(ctx, arriveStation)
	if err != nil {
		return nil, nil, err
	}
	depart, err := s.journeys.At(ctx, train, departID)
	if err != nil {
		return nil, nil, itineraryErr(err)
	}
	arrive, err := s.journeys.At(ctx, train, arriveID)
	if err != nil {
		return nil, nil, itineraryErr(err)
	}
	if arrive.Distance <= depart.Distance {
		return nil, nil, repository.ErrInvalidItinerary
	}
	return depart, arrive, nil
}

func itineraryErr(err error) error {
	if errors.Is(err, repository.ErrJourneyNotFound) {
		return repository.ErrInvalidItinerary
	}
	return err
}

// Fare computes the price of a segment: base price per unit distance
// times the distance travelled.
func Fare(basePrice float64, depart, arrive *model.Journey) float64 {
	return basePrice * float64(arrive.Distance-depart.Distance)
}

func (s *ReservationService) publish(ctx context.Context, ev queue.OrderEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().Format(time.RFC3339)
	if err := s.events(ctx, ev); err != nil {
		log.Printf("reservation: publish %s failed: %v", ev.Type, err)
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
