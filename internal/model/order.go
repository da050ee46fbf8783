package model

import "time"

// Order status values.  Transitions are booked→paid and booked→canceled;
// paid and canceled are terminal.
const (
	OrderBooked   = "BOOKED"
	OrderPaid     = "PAID"
	OrderCanceled = "CANCELED"
)

// Order records a user's booking of one seat on one departure.  At most
// one active order may exist for the same (train number, carriage index,
// seat number, departure date); an order is active while its status is
// BOOKED or PAID.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who booked the seat.
//  TrainNumber     – train being booked.
//  CarriageIndex   – carriage within the train.
//  SeatNumber      – seat within the carriage (1..Capacity.SeatCount).
//  DepartDate      – calendar date of departure.
//  DepartJourneyID – journey row where the passenger boards.
//  ArriveJourneyID – journey row where the passenger alights.
//  Price           – fare, SeatType.BasePrice × travelled distance.
//  Status          – BOOKED, PAID or CANCELED.
//  CreateDate      – when the order was placed; the expiry sweeper
//                    cancels BOOKED orders older than the residence time.
type Order struct {
	ID              uint64    // orders.id
	UserID          uint64    // orders.user_id
	TrainNumber     string    // orders.train_number
	CarriageIndex   int       // orders.carriage_index
	SeatNumber      int       // orders.seat_number
	DepartDate      time.Time // orders.depart_date (date only)
	DepartJourneyID uint64    // orders.depart_journey_id
	ArriveJourneyID uint64    // orders.arrive_journey_id
	Price           float64   // orders.price
	Status          string    // orders.status
	CreateDate      time.Time // orders.create_date
}

// Active reports whether the order still occupies seat inventory.
func (o *Order) Active() bool {
	return o.Status == OrderBooked || o.Status == OrderPaid
}
