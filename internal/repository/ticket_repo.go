package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
)

// TicketRepo creates tickets and flips their printed flag.  Ticket
// creation is coupled to the order state machine: Issue performs the
// booked→paid transition and the ticket insert in one transaction.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketCols = "id,order_id,train_number,carriage_index,seat_number,depart_date,printed"

// Issue locks the order, verifies it is still BOOKED, transitions it to
// PAID and inserts the derived ticket.  Both writes commit together or
// not at all.  A racing sweeper that canceled the order first makes
// Issue fail with ErrInvalidState.
func (r *TicketRepo) Issue(ctx context.Context, orderID uint64) (*model.Ticket, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id=? FOR UPDATE", orderID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Status != model.OrderBooked {
		return nil, ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=?", model.OrderPaid, orderID); err != nil {
		return nil, err
	}
	t := &model.Ticket{
		OrderID:       o.ID,
		TrainNumber:   o.TrainNumber,
		CarriageIndex: o.CarriageIndex,
		SeatNumber:    o.SeatNumber,
		DepartDate:    o.DepartDate,
		Printed:       false,
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (order_id,train_number,carriage_index,seat_number,depart_date,printed) VALUES (?,?,?,?,?,0)",
		t.OrderID, t.TrainNumber, t.CarriageIndex, t.SeatNumber, t.DepartDate.Format(dateFmt))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	t.ID = uint64(id)

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return t, nil
}

// GetByID fetches one ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.OrderID, &t.TrainNumber, &t.CarriageIndex, &t.SeatNumber, &t.DepartDate, &t.Printed)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkPrinted sets the printed flag.  Calling it twice is harmless: the
// flag is already set and the update is a no-op reported as success.
func (r *TicketRepo) MarkPrinted(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE tickets SET printed=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	// RowsAffected is 0 both for a missing ticket and an already-printed
	// one; distinguish with an existence check.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists int
		err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM tickets WHERE id=? LIMIT 1", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrTicketNotFound
		}
		return err
	}
	return nil
}
