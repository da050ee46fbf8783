package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-ticket-reservation/internal/model"
	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

func strp(s string) *string { return &s }

func threeStops() []model.Journey {
	return []model.Journey{
		{ID: 1, TrainNumber: "G1", StationIndex: 1, StationID: 10, Distance: 0, DepartTime: strp("08:00:00"), Valid: true},
		{ID: 2, TrainNumber: "G1", StationIndex: 2, StationID: 20, Distance: 100, ArriveTime: strp("09:00:00"), DepartTime: strp("09:05:00"), Valid: true},
		{ID: 3, TrainNumber: "G1", StationIndex: 3, StationID: 30, Distance: 250, ArriveTime: strp("10:30:00"), Valid: true},
	}
}

func TestRemoveStopPlanMiddle(t *testing.T) {
	updates, err := RemoveStopPlan(threeStops(), 20)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	removed := updates[0]
	assert.Equal(t, uint64(2), removed.JourneyID)
	assert.Equal(t, -2, removed.StationIndex)
	assert.False(t, removed.Valid)
	assert.True(t, removed.ClearArrive)
	assert.True(t, removed.ClearDepart)

	shifted := updates[1]
	assert.Equal(t, uint64(3), shifted.JourneyID)
	assert.Equal(t, 2, shifted.StationIndex)
	assert.True(t, shifted.Valid)
	assert.False(t, shifted.ClearArrive)
	assert.False(t, shifted.ClearDepart)
}

func TestRemoveStopPlanOrigin(t *testing.T) {
	updates, err := RemoveStopPlan(threeStops(), 10)
	require.NoError(t, err)
	require.Len(t, updates, 3)

	assert.Equal(t, -1, updates[0].StationIndex)
	assert.False(t, updates[0].Valid)

	// The old second stop becomes the origin: index 1, arrival nulled.
	assert.Equal(t, uint64(2), updates[1].JourneyID)
	assert.Equal(t, 1, updates[1].StationIndex)
	assert.True(t, updates[1].ClearArrive)

	assert.Equal(t, uint64(3), updates[2].JourneyID)
	assert.Equal(t, 2, updates[2].StationIndex)
}

func TestRemoveStopPlanTerminus(t *testing.T) {
	updates, err := RemoveStopPlan(threeStops(), 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, uint64(3), updates[0].JourneyID)
	assert.Equal(t, -3, updates[0].StationIndex)
	assert.False(t, updates[0].Valid)

	// The old second stop becomes the terminus: departure nulled, index kept.
	assert.Equal(t, uint64(2), updates[1].JourneyID)
	assert.Equal(t, 2, updates[1].StationIndex)
	assert.True(t, updates[1].Valid)
	assert.True(t, updates[1].ClearDepart)
	assert.False(t, updates[1].ClearArrive)
}

func TestRemoveStopPlanUnknownStation(t *testing.T) {
	_, err := RemoveStopPlan(threeStops(), 99)
	assert.ErrorIs(t, err, repository.ErrJourneyNotFound)
}

func TestRemoveStopPlanCorruptedSequence(t *testing.T) {
	dup := threeStops()
	dup[1].StationIndex = 1 // duplicate index
	_, err := RemoveStopPlan(dup, 20)
	assert.ErrorIs(t, err, repository.ErrCorrupted)

	shrink := threeStops()
	shrink[2].Distance = 50 // distance going backwards
	_, err = RemoveStopPlan(shrink, 20)
	assert.ErrorIs(t, err, repository.ErrCorrupted)
}

func TestInvalidateTrainPlan(t *testing.T) {
	updates, err := InvalidateTrainPlan(threeStops())
	require.NoError(t, err)
	require.Len(t, updates, 3)

	for i, u := range updates {
		assert.Equal(t, -(i + 1), u.StationIndex)
		assert.False(t, u.Valid)
		// Time fields stay for audit.
		assert.False(t, u.ClearArrive)
		assert.False(t, u.ClearDepart)
	}
}

// ----- service-level wiring -----

type fakeStationInvalidator struct {
	id      uint64
	err     error
	invalid []string
}

func (f *fakeStationInvalidator) MarkInvalid(_ context.Context, name string) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.invalid = append(f.invalid, name)
	return f.id, nil
}

type fakeJourneyMaintainer struct {
	serving map[uint64][]string
	stops   map[string][]model.Journey
	applied map[string][]repository.StopUpdate
}

func (f *fakeJourneyMaintainer) TrainsServing(_ context.Context, stationID uint64) ([]string, error) {
	return f.serving[stationID], nil
}

func (f *fakeJourneyMaintainer) UpdateTrainStops(_ context.Context, train string, plan func([]model.Journey) ([]repository.StopUpdate, error)) error {
	updates, err := plan(f.stops[train])
	if err != nil {
		return err
	}
	if f.applied == nil {
		f.applied = make(map[string][]repository.StopUpdate)
	}
	f.applied[train] = updates
	return nil
}

type fakeCapacityInvalidator struct{ trains []string }

func (f *fakeCapacityInvalidator) InvalidateTrain(_ context.Context, train string) error {
	f.trains = append(f.trains, train)
	return nil
}

type fakeCache struct{ drops int }

func (f *fakeCache) Invalidate(context.Context) error {
	f.drops++
	return nil
}

func TestInvalidateStation(t *testing.T) {
	stations := &fakeStationInvalidator{id: 20}
	journeys := &fakeJourneyMaintainer{
		serving: map[uint64][]string{20: {"G1"}},
		stops:   map[string][]model.Journey{"G1": threeStops()},
	}
	cache := &fakeCache{}
	svc := NewMaintenanceService(stations, journeys, &fakeCapacityInvalidator{}, cache)

	require.NoError(t, svc.InvalidateStation(context.Background(), "beta"))

	assert.Equal(t, []string{"beta"}, stations.invalid)
	require.Contains(t, journeys.applied, "G1")
	assert.Equal(t, -2, journeys.applied["G1"][0].StationIndex)
	assert.Equal(t, 1, cache.drops)
}

func TestInvalidateStationCorruptionAborts(t *testing.T) {
	corrupt := threeStops()
	corrupt[2].StationIndex = 2

	stations := &fakeStationInvalidator{id: 20}
	journeys := &fakeJourneyMaintainer{
		serving: map[uint64][]string{20: {"G1"}},
		stops:   map[string][]model.Journey{"G1": corrupt},
	}
	cache := &fakeCache{}
	svc := NewMaintenanceService(stations, journeys, &fakeCapacityInvalidator{}, cache)

	err := svc.InvalidateStation(context.Background(), "beta")
	assert.ErrorIs(t, err, repository.ErrCorrupted)
	assert.Empty(t, journeys.applied)
	assert.Zero(t, cache.drops)
}

func TestInvalidateTrain(t *testing.T) {
	journeys := &fakeJourneyMaintainer{
		stops: map[string][]model.Journey{"G1": threeStops()},
	}
	capacity := &fakeCapacityInvalidator{}
	cache := &fakeCache{}
	svc := NewMaintenanceService(&fakeStationInvalidator{}, journeys, capacity, cache)

	require.NoError(t, svc.InvalidateTrain(context.Background(), "G1"))

	require.Contains(t, journeys.applied, "G1")
	require.Len(t, journeys.applied["G1"], 3)
	assert.Equal(t, []string{"G1"}, capacity.trains)
	assert.Equal(t, 1, cache.drops)
}
