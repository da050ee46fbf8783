package model

// Capacity describes the seat inventory of one carriage of a train.
// Rows are keyed by (train number, carriage index) and soft-deleted
// together with their train.
//
// Fields:
//  TrainNumber   – train the carriage belongs to.
//  CarriageIndex – position of the carriage in the train.
//  SeatCount     – number of seats; valid seat numbers are 1..SeatCount.
//  SeatTypeID    – seat type of every seat in this carriage.
//  Valid         – false once the train has been invalidated.
type Capacity struct {
	TrainNumber   string // capacities.train_number
	CarriageIndex int    // capacities.carriage_index
	SeatCount     int    // capacities.seat_count
	SeatTypeID    uint64 // capacities.seat_type_id
	Valid         bool   // capacities.valid
}
