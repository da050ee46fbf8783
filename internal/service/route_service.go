// Package service holds the itinerary-resolution and reservation engine.
// Services depend on narrow store interfaces implemented by the
// repository layer, so the engine logic stays testable against
// in-memory fakes.
package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

// StationReader resolves station names and ids.
type StationReader interface {
	IDByName(ctx context.Context, name string) (uint64, error)
	ByID(ctx context.Context, id uint64) (*model.Station, error)
}

// JourneyReader scans the train-stop graph.
type JourneyReader interface {
	StopsByStation(ctx context.Context, stationID uint64) ([]model.Stop, error)
	StopsByTrain(ctx context.Context, train string) ([]model.Journey, error)
}

// TransferRoute is one two-leg itinerary candidate: take First from the
// origin, change at Via, take Second to the destination.
type TransferRoute struct {
	First  string        `json:"first_train"`
	Via    model.Station `json:"via_station"`
	Second string        `json:"second_train"`
}

// RouteService answers direct and transfer route queries over the
// journey graph.  It is a pure query component: it never locks, never
// ranks candidates, and tolerates slightly stale reference data.
type RouteService struct {
	stations StationReader
	journeys JourneyReader
}

func NewRouteService(st StationReader, j JourneyReader) *RouteService {
	return &RouteService{stations: st, journeys: j}
}

// DirectRoutes returns the train numbers running directly from one
// station to another.  With an empty destination, or the same station
// twice, the query becomes a circular-line lookup: trains that serve the
// origin at more than one valid stop.  An unresolvable station name is a
// diagnostic, not a failure: the result is simply empty.
func (s *RouteService) DirectRoutes(ctx context.Context, from, to string) ([]string, error) {
	fromID, err := s.stations.IDByName(ctx, from)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			log.Printf("route: station does not exist: from=%q", from)
			return []string{}, nil
		}
		return nil, err
	}

	if to == "" || to == from {
		return s.circularLines(ctx, fromID)
	}

	toID, err := s.stations.IDByName(ctx, to)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			log.Printf("route: station does not exist: to=%q", to)
			return []string{}, nil
		}
		return nil, err
	}

	fromStops, err := s.journeys.StopsByStation(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toStops, err := s.journeys.StopsByStation(ctx, toID)
	if err != nil {
		return nil, err
	}

	departIdx := indexByTrain(fromStops)
	seen := make(map[string]bool)
	matches := make([]string, 0)
	for _, stop := range toStops {
		i, ok := departIdx[stop.TrainNumber]
		if !ok || stop.StationIndex <= i {
			continue
		}
		if !seen[stop.TrainNumber] {
			seen[stop.TrainNumber] = true
			matches = append(matches, stop.TrainNumber)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// circularLines returns every train with more than one valid stop at the
// station, e.g. a loop line serving it as both an early and a late stop.
func (s *RouteService) circularLines(ctx context.Context, stationID uint64) ([]string, error) {
	stops, err := s.journeys.StopsByStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, stop := range stops {
		counts[stop.TrainNumber]++
	}
	matches := make([]string, 0)
	for train, n := range counts {
		if n > 1 {
			matches = append(matches, train)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// TransferRoutes enumerates two-leg itineraries with a single change of
// train.  For each train departing the origin, every later stop of that
// train is a candidate intermediate; a second, different train qualifies
// when it serves the intermediate at a later index than the first
// train's index there and reaches the destination strictly later still.
// The enumeration is stateless and restartable, finite (bounded by the
// journey graph), and deliberately not deduplicated: a loop line that
// reaches the same intermediate twice yields the triple twice.
func (s *RouteService) TransferRoutes(ctx context.Context, from, to string) ([]TransferRoute, error) {
	fromID, err := s.stations.IDByName(ctx, from)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			log.Printf("route: station does not exist: from=%q", from)
			return []TransferRoute{}, nil
		}
		return nil, err
	}
	toID, err := s.stations.IDByName(ctx, to)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			log.Printf("route: station does not exist: to=%q", to)
			return []TransferRoute{}, nil
		}
		return nil, err
	}

	fromStops, err := s.journeys.StopsByStation(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toStops, err := s.journeys.StopsByStation(ctx, toID)
	if err != nil {
		return nil, err
	}

	routes := make([]TransferRoute, 0)
	for _, first := range fromStops {
		legs, err := s.journeys.StopsByTrain(ctx, first.TrainNumber)
		if err != nil {
			return nil, err
		}
		for _, leg := range legs {
			if leg.StationIndex <= first.StationIndex {
				continue
			}
			viaStops, err := s.journeys.StopsByStation(ctx, leg.StationID)
			if err != nil {
				return nil, err
			}
			changeIdx := indexByTrain(viaStops)
			via, err := s.stations.ByID(ctx, leg.StationID)
			if err != nil {
				return nil, err
			}
			for _, dest := range toStops {
				if dest.TrainNumber == first.TrainNumber {
					continue
				}
				i, ok := changeIdx[dest.TrainNumber]
				if !ok || dest.StationIndex <= i {
					continue
				}
				routes = append(routes, TransferRoute{
					First:  first.TrainNumber,
					Via:    *via,
					Second: dest.TrainNumber,
				})
			}
		}
	}
	return routes, nil
}

// indexByTrain collapses stops to a train→index map.  When a loop line
// stops twice the later index wins, matching the one-index-per-train
// view the direct query takes of the origin.
func indexByTrain(stops []model.Stop) map[string]int {
	m := make(map[string]int, len(stops))
	for _, s := range stops {
		m[s.TrainNumber] = s.StationIndex
	}
	return m
}
