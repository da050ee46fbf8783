package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
)

// JourneyRepo provides access to the per-train stop sequences.  Route
// queries are plain reads without locks: reference data is effectively
// immutable and stale-but-valid route listings are acceptable.  The
// maintenance path goes through UpdateTrainStops, which locks a train's
// whole valid journey set so renumbering commits atomically.
type JourneyRepo struct{ DB *sql.DB }

func NewJourneyRepo(db *sql.DB) *JourneyRepo { return &JourneyRepo{DB: db} }

const journeyCols = "id,train_number,station_index,station_id,distance,arrive_time,depart_time,arrive_day,depart_day,valid"

// StopsByStation returns the valid (train, index) pairs serving one
// station.  A train appears more than once when a loop line serves the
// station as both an early and a late stop.
func (r *JourneyRepo) StopsByStation(ctx context.Context, stationID uint64) ([]model.Stop, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT train_number, station_index FROM journeys WHERE station_id=? AND valid=1",
		stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stops := make([]model.Stop, 0)
	for rows.Next() {
		var s model.Stop
		if err := rows.Scan(&s.TrainNumber, &s.StationIndex); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// StopsByTrain returns a train's valid stops ordered by station index.
func (r *JourneyRepo) StopsByTrain(ctx context.Context, train string) ([]model.Journey, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+journeyCols+" FROM journeys WHERE train_number=? AND valid=1 ORDER BY station_index",
		train)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJourneys(rows)
}

// At returns the valid journey row of one train at one station.
func (r *JourneyRepo) At(ctx context.Context, train string, stationID uint64) (*model.Journey, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+journeyCols+" FROM journeys WHERE train_number=? AND station_id=? AND valid=1 LIMIT 1",
		train, stationID)
	j, err := scanJourney(row)
	if err == sql.ErrNoRows {
		return nil, ErrJourneyNotFound
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

// TrainNumbers returns the distinct train numbers with valid journeys.
func (r *JourneyRepo) TrainNumbers(ctx context.Context) ([]string, error) {
	return r.trains(ctx, "SELECT DISTINCT train_number FROM journeys WHERE valid=1 ORDER BY train_number")
}

// TrainsServing returns the distinct valid trains stopping at a station.
func (r *JourneyRepo) TrainsServing(ctx context.Context, stationID uint64) ([]string, error) {
	return r.trains(ctx,
		"SELECT DISTINCT train_number FROM journeys WHERE station_id=? AND valid=1", stationID)
}

// StopUpdate is one row of a renumbering plan produced by the
// maintenance service and applied inside UpdateTrainStops.
type StopUpdate struct {
	JourneyID    uint64
	StationIndex int
	Valid        bool
	ClearArrive  bool // null arrive_time/arrive_day (stop became the origin)
	ClearDepart  bool // null depart_time/depart_day (stop became the terminus)
}

// UpdateTrainStops loads a train's valid stops under FOR UPDATE, hands
// them to plan, and applies the returned updates in the same
// transaction.  Any error from plan (including ErrCorrupted) rolls the
// whole operation back; a partial renumber never commits.  Returns
// ErrTrainNotFound when the train has no valid stops.
func (r *JourneyRepo) UpdateTrainStops(ctx context.Context, train string, plan func(stops []model.Journey) ([]StopUpdate, error)) error {
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

	rows, err := tx.QueryContext(ctx,
		"SELECT "+journeyCols+" FROM journeys WHERE train_number=? AND valid=1 ORDER BY station_index FOR UPDATE",
		train)
	if err != nil {
		return err
	}
	stops, err := scanJourneys(rows)
	rows.Close()
	if err != nil {
		return err
	}
	if len(stops) == 0 {
		return ErrTrainNotFound
	}

	updates, err := plan(stops)
	if err != nil {
		return err
	}
	for _, u := range updates {
		q := "UPDATE journeys SET station_index=?, valid=?"
		if u.ClearArrive {
			q += ", arrive_time=NULL, arrive_day=NULL"
		}
		if u.ClearDepart {
			q += ", depart_time=NULL, depart_day=NULL"
		}
		q += " WHERE id=?"
		if _, err := tx.ExecContext(ctx, q, u.StationIndex, u.Valid, u.JourneyID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *JourneyRepo) trains(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJourney(row rowScanner) (*model.Journey, error) {
	var (
		j                      model.Journey
		arriveTime, departTime sql.NullString
		arriveDay, departDay   sql.NullInt64
	)
	err := row.Scan(&j.ID, &j.TrainNumber, &j.StationIndex, &j.StationID, &j.Distance,
		&arriveTime, &departTime, &arriveDay, &departDay, &j.Valid)
	if err != nil {
		return nil, err
	}
	if arriveTime.Valid {
		v := arriveTime.String
		j.ArriveTime = &v
	}
	if departTime.Valid {
		v := departTime.String
		j.DepartTime = &v
	}
	if arriveDay.Valid {
		v := int(arriveDay.Int64)
		j.ArriveDay = &v
	}
	if departDay.Valid {
		v := int(departDay.Int64)
		j.DepartDay = &v
	}
	return &j, nil
}

func scanJourneys(rows *sql.Rows) ([]model.Journey, error) {
	out := make([]model.Journey, 0)
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}
