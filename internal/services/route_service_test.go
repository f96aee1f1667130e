package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

func selectedAt(id, memberID string, lat, lng float64, stayMin int, wish float64) pm.SelectedPlace {
	p := place(id, memberID, 3)
	p.Location = pm.Coordinate{Latitude: lat, Longitude: lng}
	p.StayMinutes = stayMin
	return pm.SelectedPlace{
		NormalizedPlace: pm.NormalizedPlace{CandidatePlace: p, NormalizedWish: wish},
		Round:           1,
	}
}

func selectedAnchor(id, role string, lat, lng float64) pm.SelectedPlace {
	a := anchor(id, role)
	a.Location = pm.Coordinate{Latitude: lat, Longitude: lng}
	return pm.SelectedPlace{NormalizedPlace: pm.NormalizedPlace{CandidatePlace: a}}
}

func tripDay() time.Time {
	return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
}

func TestConstruct_FiftyKilometersMeansCar(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	// ~0.45 deg of longitude at the equator is roughly 50 km.
	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 0, 0),
		selectedAt("near", "m1", 0, 0.001, 60, 0.9),
		selectedAt("far", "m1", 0, 0.451, 60, 0.8),
	}

	res, _, err := r.Construct(context.Background(), selected, tripDay(), tripDay(), pm.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, res.Days, 1)

	var farLeg *pm.TransportLeg
	for i, leg := range res.Days[0].Legs {
		if leg.ToPlaceID == "far" {
			farLeg = &res.Days[0].Legs[i]
		}
	}
	require.NotNil(t, farLeg)
	assert.Equal(t, pm.ModeCar, farLeg.Mode)
	assert.InDelta(t, 50, farLeg.DistanceKm, 1.0)
}

func TestConstruct_VisitsAreOrderedWithoutOverlap(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 10, 106),
		selectedAt("p1", "m1", 10.01, 106.01, 45, 0.9),
		selectedAt("p2", "m1", 10.02, 106.03, 90, 0.7),
		selectedAt("p3", "m2", 10.05, 106.02, 60, 0.8),
	}

	res, _, err := r.Construct(context.Background(), selected, tripDay(), tripDay(), pm.DefaultSettings())
	require.NoError(t, err)

	for _, day := range res.Days {
		for i, v := range day.Visits {
			assert.True(t, v.Arrival.Before(v.Departure), "arrival must precede departure for %s", v.Place.ID)
			if i > 0 {
				prev := day.Visits[i-1]
				assert.True(t, prev.Departure.Before(v.Arrival),
					"visit %s must not overlap %s", prev.Place.ID, v.Place.ID)
			}
		}
	}
}

func TestConstruct_WalkForShortHops(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 0, 0),
		selectedAt("cafe", "m1", 0, 0.005, 30, 0.9), // ~0.55 km
	}

	res, _, err := r.Construct(context.Background(), selected, tripDay(), tripDay(), pm.DefaultSettings())
	require.NoError(t, err)
	require.NotEmpty(t, res.Days[0].Legs)
	assert.Equal(t, pm.ModeWalk, res.Days[0].Legs[0].Mode)
}

func TestConstruct_OverflowIsDroppedAndReported(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	settings := pm.DefaultSettings()
	settings.DailyHours = 2

	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 10, 106),
		selectedAt("p1", "m1", 10.01, 106.01, 60, 0.9),
		selectedAt("p2", "m1", 10.02, 106.02, 60, 0.5),
		selectedAt("p3", "m2", 10.03, 106.03, 60, 0.7),
	}

	res, _, err := r.Construct(context.Background(), selected, tripDay(), tripDay(), settings)
	require.NoError(t, err)

	scheduled := 0
	for _, d := range res.Days {
		for _, v := range d.Visits {
			if !v.Place.IsAnchor {
				scheduled++
			}
		}
	}
	assert.Equal(t, 3, scheduled+len(res.Dropped), "dropped places must be reported, not lost")
	assert.NotEmpty(t, res.Dropped)
}

func TestConstruct_DeferredToNextDay(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	settings := pm.DefaultSettings()
	settings.DailyHours = 3

	start := tripDay()
	end := start.AddDate(0, 0, 1)

	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 10, 106),
		selectedAt("p1", "m1", 10.01, 106.01, 90, 0.9),
		selectedAt("p2", "m1", 10.02, 106.02, 90, 0.5),
	}

	res, _, err := r.Construct(context.Background(), selected, start, end, settings)
	require.NoError(t, err)
	require.Len(t, res.Days, 2)

	assert.Empty(t, res.Dropped)
	assert.NotEmpty(t, res.Days[1].Visits, "overflow place moves to the second day")
}

func TestConstruct_RequiresDepartureAnchor(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	_, _, err := r.Construct(context.Background(),
		[]pm.SelectedPlace{selectedAt("p1", "m1", 10, 106, 60, 0.9)},
		tripDay(), tripDay(), pm.DefaultSettings())
	assert.ErrorIs(t, err, utils.ErrNoAnchor)
}

func TestConstruct_TimeWindowPinsPlaceToItsDay(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	start := tripDay()
	end := start.AddDate(0, 0, 1)

	pinnedArrival := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	pinned := selectedAt("concert", "m1", 10.05, 106.05, 120, 0.9)
	pinned.EarliestArrival = &pinnedArrival

	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 10, 106),
		selectedAt("p1", "m1", 10.01, 106.01, 60, 0.6),
		pinned,
	}

	res, _, err := r.Construct(context.Background(), selected, start, end, pm.DefaultSettings())
	require.NoError(t, err)

	for _, v := range res.Days[0].Visits {
		assert.NotEqual(t, "concert", v.Place.ID, "pinned place must not land on day one")
	}

	var found *pm.ScheduledVisit
	for i, v := range res.Days[1].Visits {
		if v.Place.ID == "concert" {
			found = &res.Days[1].Visits[i]
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.Arrival.Before(pinnedArrival), "arrival honors the earliest-arrival window")
}

func TestConstruct_AnchorVisitsOccupyRealIntervals(t *testing.T) {
	r := NewRouteConstructor(zerolog.Nop())

	// Anchors carry no declared stay, so their dwell is floored.
	selected := []pm.SelectedPlace{
		selectedAnchor("home", "departure", 10, 106),
		selectedAt("p1", "m1", 10.01, 106.01, 60, 0.9),
		selectedAnchor("hotel", "destination", 10.02, 106.02),
	}

	settings := pm.DefaultSettings()
	settings.MinBufferMinutes = 0

	res, _, err := r.Construct(context.Background(), selected, tripDay(), tripDay(), settings)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, day := range res.Days {
		for _, v := range day.Visits {
			if v.Place.IsAnchor {
				seen[v.Place.ID] = true
				assert.True(t, v.Arrival.Before(v.Departure),
					"anchor %s must occupy a non-empty interval", v.Place.ID)
			}
		}
	}
	assert.True(t, seen["home"])
	assert.True(t, seen["hotel"])
}
