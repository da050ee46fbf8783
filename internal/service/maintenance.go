package service

import (
	"context"
	"log"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

// StationInvalidator flips the soft-delete flag of a station.
type StationInvalidator interface {
	MarkInvalid(ctx context.Context, name string) (uint64, error)
}

// JourneyMaintainer exposes the locked unit of work over one train's
// journey set.  The plan callback runs with the whole valid stop
// sequence locked; returning an error rolls everything back.
type JourneyMaintainer interface {
	TrainsServing(ctx context.Context, stationID uint64) ([]string, error)
	UpdateTrainStops(ctx context.Context, train string, plan func(stops []model.Journey) ([]repository.StopUpdate, error)) error
}

// CapacityInvalidator soft-deletes a train's capacity rows.
type CapacityInvalidator interface {
	InvalidateTrain(ctx context.Context, train string) error
}

// CacheInvalidator drops cached registry listings after reference data
// changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// MaintenanceService implements the soft-delete paths.  Nothing is ever
// hard-deleted: stations, journeys and capacities are flagged invalid so
// historical orders and tickets stay resolvable.
type MaintenanceService struct {
	stations StationInvalidator
	journeys JourneyMaintainer
	capacity CapacityInvalidator
	cache    CacheInvalidator // optional
}

func NewMaintenanceService(st StationInvalidator, j JourneyMaintainer, c CapacityInvalidator, cache CacheInvalidator) *MaintenanceService {
	return &MaintenanceService{stations: st, journeys: j, capacity: c, cache: cache}
}

// InvalidateStation decommissions a station.  The station is flagged
// invalid, and for every valid train that stopped there the stop is
// removed from the valid sequence and the remaining stops renumbered.
// Each train's renumber commits atomically; a corrupted sequence aborts
// that train's update without partial renumbering.
func (s *MaintenanceService) InvalidateStation(ctx context.Context, name string) error {
	stationID, err := s.stations.MarkInvalid(ctx, name)
	if err != nil {
		return err
	}
	trains, err := s.journeys.TrainsServing(ctx, stationID)
	if err != nil {
		return err
	}
	for _, train := range trains {
		err := s.journeys.UpdateTrainStops(ctx, train, func(stops []model.Journey) ([]repository.StopUpdate, error) {
			return RemoveStopPlan(stops, stationID)
		})
		if err != nil {
			return err
		}
	}
	s.invalidateCache(ctx)
	return nil
}

// InvalidateTrain decommissions a whole train: every capacity row and
// journey is flagged invalid and the journey indices are negated,
// voiding the sequence while preserving the original ordering for audit.
func (s *MaintenanceService) InvalidateTrain(ctx context.Context, train string) error {
	err := s.journeys.UpdateTrainStops(ctx, train, InvalidateTrainPlan)
	if err != nil {
		return err
	}
	if err := s.capacity.InvalidateTrain(ctx, train); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *MaintenanceService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("maintenance: cache invalidation failed: %v", err)
	}
}

// RemoveStopPlan computes the renumbering updates for removing one
// station's stop from a train's valid sequence:
//
//   - the removed stop is flagged invalid, its index moved to a negative
//     sentinel and its time fields nulled;
//   - every later stop's index is decremented by one, keeping the valid
//     sequence contiguous;
//   - if the removed stop was the origin or terminus, the neighboring
//     stop becomes the new endpoint and its now-irrelevant arrival resp.
//     departure fields are nulled.
//
// The incoming stops must be the full valid sequence in index order.  A
// sequence that is not strictly increasing is corrupted and aborts the
// plan.
func RemoveStopPlan(stops []model.Journey, stationID uint64) ([]repository.StopUpdate, error) {
	if err := checkSequence(stops); err != nil {
		return nil, err
	}
	pos := -1
	for i := range stops {
		if stops[i].StationID == stationID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, repository.ErrJourneyNotFound
	}

	updates := []repository.StopUpdate{{
		JourneyID:    stops[pos].ID,
		StationIndex: -stops[pos].StationIndex,
		Valid:        false,
		ClearArrive:  true,
		ClearDepart:  true,
	}}
	for i := pos + 1; i < len(stops); i++ {
		updates = append(updates, repository.StopUpdate{
			JourneyID:    stops[i].ID,
			StationIndex: stops[i].StationIndex - 1,
			Valid:        true,
		})
	}
	// New endpoint cleanup: a train no longer arrives at its new origin
	// and no longer departs from its new terminus.
	if pos == 0 && len(stops) > 1 {
		updates[1].ClearArrive = true
	}
	if pos == len(stops)-1 && len(stops) > 1 {
		updates = append(updates, repository.StopUpdate{
			JourneyID:    stops[pos-1].ID,
			StationIndex: stops[pos-1].StationIndex,
			Valid:        true,
			ClearDepart:  true,
		})
	}
	return updates, nil
}

// InvalidateTrainPlan voids a train's whole valid sequence: every stop
// is flagged invalid with its index negated.  Time fields are preserved
// for audit.
func InvalidateTrainPlan(stops []model.Journey) ([]repository.StopUpdate, error) {
	if err := checkSequence(stops); err != nil {
		return nil, err
	}
	updates := make([]repository.StopUpdate, 0, len(stops))
	for i := range stops {
		updates = append(updates, repository.StopUpdate{
			JourneyID:    stops[i].ID,
			StationIndex: -stops[i].StationIndex,
			Valid:        false,
		})
	}
	return updates, nil
}

// checkSequence verifies the strictly-increasing station_index invariant
// (which also rules out duplicates) and non-decreasing distance.
func checkSequence(stops []model.Journey) error {
	for i := 1; i < len(stops); i++ {
		if stops[i].StationIndex <= stops[i-1].StationIndex {
			return repository.ErrCorrupted
		}
		if stops[i].Distance < stops[i-1].Distance {
			return repository.ErrCorrupted
		}
	}
	return nil
}
