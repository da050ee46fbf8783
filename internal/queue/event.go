// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair for order lifecycle events.
package queue

// Order event types carried in OrderEvent.Type.
const (
	EventOrderBooked   = "order.booked"
	EventOrderPaid     = "order.paid"
	EventOrderCanceled = "order.canceled"
)

// OrderEvent is published on every order state transition, including the
// cancellations performed by the expiry sweeper.  It carries enough
// information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type OrderEvent struct {
	Type          string  `json:"type"`
	OrderID       uint64  `json:"order_id"`
	UserID        uint64  `json:"user_id,omitempty"`
	TrainNumber   string  `json:"train_number,omitempty"`
	CarriageIndex int     `json:"carriage_index,omitempty"`
	SeatNumber    int     `json:"seat_number,omitempty"`
	DepartDate    string  `json:"depart_date,omitempty"`
	Price         float64 `json:"price,omitempty"`
	TicketID      uint64  `json:"ticket_id,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
