package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
)

// StationRepo provides read access to cities and stations and the
// soft-delete flag flip for stations.  Registry data is read-mostly;
// only the maintenance path writes here.
type StationRepo struct{ DB *sql.DB }

func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{DB: db} }

// IDByName resolves a valid station name to its id.  Invalid (soft
// deleted) stations do not resolve.
func (r *StationRepo) IDByName(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM stations WHERE name=? AND valid=1 LIMIT 1", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrStationNotFound
	}
	return id, err
}

// ByID fetches a station by id regardless of validity, so historical
// journeys and orders stay resolvable after decommissioning.
func (r *StationRepo) ByID(ctx context.Context, id uint64) (*model.Station, error) {
	var s model.Station
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,city_id,valid FROM stations WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Name, &s.CityID, &s.Valid)
	if err == sql.ErrNoRows {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Names returns the names of all valid stations.
func (r *StationRepo) Names(ctx context.Context) ([]string, error) {
	return r.names(ctx, "SELECT name FROM stations WHERE valid=1 ORDER BY name")
}

// NamesByCity returns all valid station names in the named city.
func (r *StationRepo) NamesByCity(ctx context.Context, city string) ([]string, error) {
	return r.names(ctx,
		"SELECT s.name FROM stations s JOIN cities c ON c.id=s.city_id WHERE c.name=? AND s.valid=1 ORDER BY s.name",
		city)
}

// Cities returns all city names.
func (r *StationRepo) Cities(ctx context.Context) ([]string, error) {
	return r.names(ctx, "SELECT name FROM cities ORDER BY name")
}

// CitiesByProvince returns the city names of one province.
func (r *StationRepo) CitiesByProvince(ctx context.Context, province string) ([]string, error) {
	return r.names(ctx, "SELECT name FROM cities WHERE province=? ORDER BY name", province)
}

// Provinces returns the distinct provinces of all cities.
func (r *StationRepo) Provinces(ctx context.Context) ([]string, error) {
	return r.names(ctx, "SELECT DISTINCT province FROM cities ORDER BY province")
}

// MarkInvalid flips the valid flag of a station by name and returns its
// id.  The station row is kept: journeys hold positional references to
// it.  Returns ErrStationNotFound when no valid station has that name.
func (r *StationRepo) MarkInvalid(ctx context.Context, name string) (uint64, error) {
	id, err := r.IDByName(ctx, name)
	if err != nil {
		return 0, err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE stations SET valid=0 WHERE id=?", id)
	return id, err
}

func (r *StationRepo) names(ctx context.Context, query string, args ...interface{}) ([]string, error) {
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
