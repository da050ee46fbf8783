package model

import "time"

// Ticket is derived from exactly one order at the moment that order
// transitions booked→paid.  It copies the seat-identifying fields so the
// ticket stays resolvable even after its train is soft-deleted.  Tickets
// are never deleted; the only mutation is setting Printed.
//
// Fields:
//  ID            – primary key identifier.
//  OrderID       – order this ticket was issued for.
//  TrainNumber   – copied from the order.
//  CarriageIndex – copied from the order.
//  SeatNumber    – copied from the order.
//  DepartDate    – copied from the order.
//  Printed       – set once when the ticket is physically printed.
type Ticket struct {
	ID            uint64    // tickets.id
	OrderID       uint64    // tickets.order_id
	TrainNumber   string    // tickets.train_number
	CarriageIndex int       // tickets.carriage_index
	SeatNumber    int       // tickets.seat_number
	DepartDate    time.Time // tickets.depart_date (date only)
	Printed       bool      // tickets.printed
}
