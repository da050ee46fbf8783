package model

// Journey is one stop record of a specific train's ordered route.  For a
// given valid train number the set of valid journeys forms a strictly
// increasing sequence of StationIndex values (1-based), and Distance is
// monotonically non-decreasing along that sequence.
//
// Soft delete keeps journeys resolvable forever: removing a single stop
// flags the row invalid and moves its index out of the valid sequence
// (negative sentinel), while invalidating a whole train negates every
// index so the original ordering stays readable for audit.
//
// Fields:
//  ID           – primary key identifier.
//  TrainNumber  – train this stop belongs to (e.g. "G89", "D6315").
//  StationIndex – 1-based position along the train's route, unique per
//                 train while the row is valid.
//  StationID    – station served at this stop.
//  Distance     – cumulative distance from the train's origin.
//  ArriveTime   – time of day the train arrives ("15:04:05"), nil for the
//                 origin stop.
//  DepartTime   – time of day the train departs, nil for the terminus.
//  ArriveDay    – day offset of the arrival relative to departure day 0;
//                 handles trains crossing midnight (e.g. K529).
//  DepartDay    – day offset of the departure.
//  Valid        – false once the stop or its train has been invalidated.
type Journey struct {
	ID           uint64  // journeys.id
	TrainNumber  string  // journeys.train_number
	StationIndex int     // journeys.station_index
	StationID    uint64  // journeys.station_id
	Distance     int     // journeys.distance
	ArriveTime   *string // journeys.arrive_time (nullable)
	DepartTime   *string // journeys.depart_time (nullable)
	ArriveDay    *int    // journeys.arrive_day (nullable)
	DepartDay    *int    // journeys.depart_day (nullable)
	Valid        bool    // journeys.valid
}

// Stop is the (train number, station index) projection of a journey used
// by the route resolver when scanning stops at a single station.
type Stop struct {
	TrainNumber  string
	StationIndex int
}
