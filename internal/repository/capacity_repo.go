package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
)

// CapacityRepo provides access to per-carriage seat inventory and seat
// types.
type CapacityRepo struct{ DB *sql.DB }

func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{DB: db} }

// For returns the valid capacity row of one carriage.
func (r *CapacityRepo) For(ctx context.Context, train string, carriage int) (*model.Capacity, error) {
	var c model.Capacity
	err := r.DB.QueryRowContext(ctx,
		"SELECT train_number,carriage_index,seat_count,seat_type_id,valid FROM capacities WHERE train_number=? AND carriage_index=? AND valid=1 LIMIT 1",
		train, carriage).Scan(&c.TrainNumber, &c.CarriageIndex, &c.SeatCount, &c.SeatTypeID, &c.Valid)
	if err == sql.ErrNoRows {
		return nil, ErrCapacityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ByTrain returns all valid capacity rows of a train ordered by carriage.
func (r *CapacityRepo) ByTrain(ctx context.Context, train string) ([]model.Capacity, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT train_number,carriage_index,seat_count,seat_type_id,valid FROM capacities WHERE train_number=? AND valid=1 ORDER BY carriage_index",
		train)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Capacity, 0)
	for rows.Next() {
		var c model.Capacity
		if err := rows.Scan(&c.TrainNumber, &c.CarriageIndex, &c.SeatCount, &c.SeatTypeID, &c.Valid); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeatType fetches one seat type row.
func (r *CapacityRepo) SeatType(ctx context.Context, id uint64) (*model.SeatType, error) {
	var st model.SeatType
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,base_price FROM seat_types WHERE id=? LIMIT 1",
		id).Scan(&st.ID, &st.Name, &st.BasePrice)
	if err == sql.ErrNoRows {
		return nil, ErrCapacityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// InvalidateTrain flips the valid flag on every capacity row of a
// train.  Rows are kept so historical orders/tickets stay resolvable.
func (r *CapacityRepo) InvalidateTrain(ctx context.Context, train string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE capacities SET valid=0 WHERE train_number=?", train)
	return err
}
