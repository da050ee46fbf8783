package model

// Station is a railway station.  Stations are soft-deleted only: a
// decommissioned station keeps its row with Valid=false because journeys
// and historical orders hold positional references to it.  Names are
// unique among valid stations.
//
// Fields:
//  ID     – primary key identifier.
//  Name   – station name, unique among valid stations.
//  CityID – city the station belongs to.
//  Valid  – false once the station has been decommissioned.
type Station struct {
	ID     uint64 // stations.id
	Name   string // stations.name
	CityID uint64 // stations.city_id
	Valid  bool   // stations.valid
}

// SeatType is reference data describing a class of seat and its base
// price per unit of distance.  Fares are computed as
// BasePrice × (arrive.Distance − depart.Distance).
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique seat type name (e.g. second class, sleeper).
//  BasePrice – price per unit distance.
type SeatType struct {
	ID        uint64  // seat_types.id
	Name      string  // seat_types.name
	BasePrice float64 // seat_types.base_price
}
