package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pm "tripweave/internal/models/plan_models"
)

func scheduleWithDays(days ...pm.DaySchedule) *pm.TripSchedule {
	return &pm.TripSchedule{TripID: "t1", Days: days}
}

func TestDetect_TimeOverlapIsCritical(t *testing.T) {
	d := NewConflictDetector(zerolog.Nop())
	day := tripDay()

	// Visit B arrives before visit A departs.
	sched := scheduleWithDays(pm.DaySchedule{
		Date: day,
		Visits: []pm.ScheduledVisit{
			visitAt("visit-a", day, 9, 0, 11, 0, "museum"),
			visitAt("visit-b", day, 10, 30, 12, 0, "park"),
		},
	})

	conflicts := d.Detect(sched)

	overlaps := make([]pm.Conflict, 0)
	for _, c := range conflicts {
		if c.Type == pm.ConflictTimeOverlap {
			overlaps = append(overlaps, c)
		}
	}
	require.Len(t, overlaps, 1, "exactly one overlap conflict")
	assert.Equal(t, pm.SeverityCritical, overlaps[0].Severity)
	assert.ElementsMatch(t, []string{"visit-a", "visit-b"}, overlaps[0].AffectedIDs)
}

func TestDetect_MissingLunchIsMinor(t *testing.T) {
	d := NewConflictDetector(zerolog.Nop())
	day := tripDay()

	// 08:30-11:00 and 11:10-13:00 with no lunch break: the day spans the
	// 12:00-13:30 window but nothing was placed in it.
	sched := scheduleWithDays(pm.DaySchedule{
		Date: day,
		Visits: []pm.ScheduledVisit{
			visitAt("p1", day, 8, 30, 11, 0, "museum"),
			visitAt("p2", day, 11, 10, 13, 0, "park"),
		},
		Stats: pm.DayStats{
			EarliestStart: time.Date(day.Year(), day.Month(), day.Day(), 8, 30, 0, 0, day.Location()),
			LatestEnd:     time.Date(day.Year(), day.Month(), day.Day(), 13, 0, 0, 0, day.Location()),
		},
	})

	conflicts := d.Detect(sched)

	var mealConflict *pm.Conflict
	for i, c := range conflicts {
		if c.Type == pm.ConflictMealTiming && c.Severity == pm.SeverityMinor {
			mealConflict = &conflicts[i]
		}
	}
	require.NotNil(t, mealConflict)
	assert.Contains(t, mealConflict.Description, "lunch")
}

func TestDetect_LunchPlacedMeansNoMealConflict(t *testing.T) {
	d := NewConflictDetector(zerolog.Nop())
	day := tripDay()

	sched := scheduleWithDays(pm.DaySchedule{
		Date: day,
		Visits: []pm.ScheduledVisit{
			visitAt("p1", day, 11, 0, 12, 0, "museum"),
		},
		Meals: []pm.MealBreak{{
			Type:  pm.MealLunch,
			Start: time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, day.Location()),
			End:   time.Date(day.Year(), day.Month(), day.Day(), 13, 0, 0, 0, day.Location()),
		}},
		Stats: pm.DayStats{
			EarliestStart: time.Date(day.Year(), day.Month(), day.Day(), 11, 0, 0, 0, day.Location()),
			LatestEnd:     time.Date(day.Year(), day.Month(), day.Day(), 13, 0, 0, 0, day.Location()),
		},
	})

	for _, c := range d.Detect(sched) {
		if c.Type == pm.ConflictMealTiming {
			assert.NotContains(t, c.Description, "lunch")
		}
	}
}

func TestDetect_TravelImpossibleIsWarning(t *testing.T) {
	d := NewConflictDetector(zerolog.Nop())
	day := tripDay()

	// 10 km on foot in 20 minutes implies 30 km/h walking.
	sched := scheduleWithDays(pm.DaySchedule{
		Date: day,
		Visits: []pm.ScheduledVisit{
			visitAt("p1", day, 9, 0, 10, 0, "museum"),
			visitAt("p2", day, 10, 30, 11, 30, "park"),
		},
		Legs: []pm.TransportLeg{{
			FromPlaceID: "p1", ToPlaceID: "p2",
			Mode: pm.ModeWalk, DistanceKm: 10, DurationMinutes: 20,
		}},
	})

	conflicts := d.Detect(sched)

	var travel *pm.Conflict
	for i, c := range conflicts {
		if c.Type == pm.ConflictTravelImpossible {
			travel = &conflicts[i]
		}
	}
	require.NotNil(t, travel)
	assert.Equal(t, pm.SeverityWarning, travel.Severity)
	assert.False(t, travel.AutoResolvable)
}

func TestDetect_CleanScheduleHasNoCriticals(t *testing.T) {
	d := NewConflictDetector(zerolog.Nop())
	day := tripDay()

	sched := scheduleWithDays(pm.DaySchedule{
		Date: day,
		Visits: []pm.ScheduledVisit{
			visitAt("p1", day, 9, 0, 10, 0, "museum"),
			visitAt("p2", day, 10, 30, 11, 30, "park"),
		},
		Legs: []pm.TransportLeg{{
			FromPlaceID: "p1", ToPlaceID: "p2",
			Mode: pm.ModeWalk, DistanceKm: 1, DurationMinutes: 15,
		}},
	})

	for _, c := range d.Detect(sched) {
		assert.NotEqual(t, pm.SeverityCritical, c.Severity)
	}
}
