package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
)

// OrderRepo owns every mutation of order state.  All write paths lock
// the rows they touch with SELECT ... FOR UPDATE before reading them and
// hold the lock until commit: two bookers racing for the same seat, or a
// ticket issuance racing the expiry sweeper, serialize on the row lock
// and the loser observes the already-changed state.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderCols = "id,user_id,train_number,carriage_index,seat_number,depart_date,depart_journey_id,arrive_journey_id,price,status,create_date"

const dateFmt = "2006-01-02"

// Create inserts a new BOOKED order after verifying, under lock, that no
// active order occupies the same (train, carriage, seat, date).  The
// conflict scan and the insert commit together; of two concurrent
// bookers exactly one succeeds and the other gets ErrSeatConflict.  On
// success the generated ID and create timestamp are written back to o.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Every existing order for this seat/date must already be canceled.
	rows, err := tx.QueryContext(ctx,
		"SELECT status FROM orders WHERE train_number=? AND carriage_index=? AND seat_number=? AND depart_date=? FOR UPDATE",
		o.TrainNumber, o.CarriageIndex, o.SeatNumber, o.DepartDate.Format(dateFmt))
	if err != nil {
		return err
	}
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			rows.Close()
			return err
		}
		if status != model.OrderCanceled {
			rows.Close()
			return ErrSeatConflict
		}
	}
	// A scan error must not pass for an empty conflict set.
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}

	o.Status = model.OrderBooked
	o.CreateDate = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id,train_number,carriage_index,seat_number,depart_date,depart_journey_id,arrive_journey_id,price,status,create_date) VALUES (?,?,?,?,?,?,?,?,?,?)",
		o.UserID, o.TrainNumber, o.CarriageIndex, o.SeatNumber, o.DepartDate.Format(dateFmt),
		o.DepartJourneyID, o.ArriveJourneyID, o.Price, o.Status, o.CreateDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches one order.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id=? LIMIT 1", id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE user_id=? ORDER BY create_date DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Cancel transitions a BOOKED order to CANCELED under lock.  Terminal
// orders yield ErrInvalidState; paid orders cannot be canceled here.
func (r *OrderRepo) Cancel(ctx context.Context, orderID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM orders WHERE id=? FOR UPDATE", orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if status != model.OrderBooked {
		return ErrInvalidState
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=?", model.OrderCanceled, orderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CancelStale cancels every BOOKED order created before cutoff and
// returns the affected ids.  The rows are locked first, so a concurrent
// ticket issuance either beats the sweep (order is PAID and skipped) or
// waits on the lock and then fails with ErrInvalidState.
func (r *OrderRepo) CancelStale(ctx context.Context, cutoff time.Time) ([]uint64, error) {
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

	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM orders WHERE status=? AND create_date < ? FOR UPDATE",
		model.OrderBooked, cutoff)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		_ = tx.Rollback()
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE status=? AND create_date < ?",
		model.OrderCanceled, model.OrderBooked, cutoff); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ids, nil
}

// CountActive counts the active (BOOKED or PAID) orders for one
// (train, carriage, date) key.
func (r *OrderRepo) CountActive(ctx context.Context, train string, carriage int, departDate time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE train_number=? AND carriage_index=? AND depart_date=? AND status IN (?,?)",
		train, carriage, departDate.Format(dateFmt), model.OrderBooked, model.OrderPaid).Scan(&n)
	return n, err
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TrainNumber, &o.CarriageIndex, &o.SeatNumber,
		&o.DepartDate, &o.DepartJourneyID, &o.ArriveJourneyID, &o.Price, &o.Status, &o.CreateDate)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
