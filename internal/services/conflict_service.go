package services

import (
	"fmt"

	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

// Hard physical speed ceilings per mode, km/h. A leg whose recorded duration
// implies a faster trip than this is flagged as travel-impossible.
var maxPhysicalSpeedKmh = map[pm.TransportMode]float64{
	pm.ModeWalk:    6,
	pm.ModeTransit: 80,
	pm.ModeCar:     130,
	pm.ModeFlight:  950,
}

// ConflictDetector scans an assembled schedule for temporal and logical
// violations. Advisory only: it annotates, never mutates.
type ConflictDetector interface {
	Detect(schedule *pm.TripSchedule) []pm.Conflict
}

type conflictDetector struct {
	log zerolog.Logger
}

func NewConflictDetector(log zerolog.Logger) ConflictDetector {
	return &conflictDetector{log: log.With().Str("stage", "conflicts").Logger()}
}

func (d *conflictDetector) Detect(schedule *pm.TripSchedule) []pm.Conflict {
	var conflicts []pm.Conflict
	for _, day := range schedule.Days {
		conflicts = append(conflicts, overlapConflicts(day)...)
		conflicts = append(conflicts, travelConflicts(day)...)
		conflicts = append(conflicts, mealConflicts(day)...)
	}
	if len(conflicts) > 0 {
		d.log.Info().Int("conflicts", len(conflicts)).Msg("schedule conflicts detected")
	}
	return conflicts
}

func overlapConflicts(day pm.DaySchedule) []pm.Conflict {
	var out []pm.Conflict
	for i := 0; i+1 < len(day.Visits); i++ {
		a, b := day.Visits[i], day.Visits[i+1]
		if !a.Departure.Before(b.Arrival) {
			out = append(out, pm.Conflict{
				Type:     pm.ConflictTimeOverlap,
				Severity: pm.SeverityCritical,
				DayIndex: day.DayIndex,
				Description: fmt.Sprintf("%s departs at %s but %s arrives at %s",
					a.Place.Name, a.Departure.Format("15:04"),
					b.Place.Name, b.Arrival.Format("15:04")),
				AffectedIDs:    []string{a.Place.ID, b.Place.ID},
				SuggestedFix:   fmt.Sprintf("shift %s later or shorten the stay at %s", b.Place.Name, a.Place.Name),
				AutoResolvable: true,
			})
		}
	}
	return out
}

func travelConflicts(day pm.DaySchedule) []pm.Conflict {
	var out []pm.Conflict
	for _, leg := range day.Legs {
		maxSpeed := maxPhysicalSpeedKmh[leg.Mode]
		if maxSpeed <= 0 || leg.DistanceKm <= 0 {
			continue
		}
		minRequired := leg.DistanceKm / maxSpeed * 60
		if float64(leg.DurationMinutes) < minRequired {
			out = append(out, pm.Conflict{
				Type:     pm.ConflictTravelImpossible,
				Severity: pm.SeverityWarning,
				DayIndex: day.DayIndex,
				Description: fmt.Sprintf("%.1f km by %s in %d min is below the %.0f min physical minimum",
					leg.DistanceKm, leg.Mode, leg.DurationMinutes, minRequired),
				AffectedIDs:    []string{leg.FromPlaceID, leg.ToPlaceID},
				SuggestedFix:   "re-estimate the leg duration or pick a faster mode",
				AutoResolvable: false,
			})
		}
	}
	return out
}

// mealConflicts flags a day that spans a canonical meal window without a meal
// of that type having been placed.
func mealConflicts(day pm.DaySchedule) []pm.Conflict {
	if len(day.Visits) == 0 {
		return nil
	}

	dayStart := day.Stats.EarliestStart
	dayEnd := day.Stats.LatestEnd
	if dayStart.IsZero() {
		dayStart = day.Visits[0].Arrival
		dayEnd = day.Visits[len(day.Visits)-1].Departure
	}

	placed := make(map[pm.MealType]bool, len(day.Meals))
	for _, m := range day.Meals {
		placed[m.Type] = true
	}

	var out []pm.Conflict
	for _, w := range mealWindows {
		windowStart := utils.AtClock(day.Date, w.startClock/60, w.startClock%60)
		windowEnd := utils.AtClock(day.Date, w.endClock/60, w.endClock%60)

		spans := dayStart.Before(windowEnd) && dayEnd.After(windowStart)
		if !spans || placed[w.meal] {
			continue
		}
		out = append(out, pm.Conflict{
			Type:     pm.ConflictMealTiming,
			Severity: pm.SeverityMinor,
			DayIndex: day.DayIndex,
			Description: fmt.Sprintf("day %d spans the %s window (%s–%s) with no %s break",
				day.DayIndex+1, w.meal,
				windowStart.Format("15:04"), windowEnd.Format("15:04"), w.meal),
			AffectedIDs:    visitIDs(day),
			SuggestedFix:   fmt.Sprintf("free at least %d minutes between %s and %s", minMealGapMinutes, windowStart.Format("15:04"), windowEnd.Format("15:04")),
			AutoResolvable: true,
		})
	}
	return out
}

func visitIDs(day pm.DaySchedule) []string {
	ids := make([]string, 0, len(day.Visits))
	for _, v := range day.Visits {
		ids = append(ids, v.Place.ID)
	}
	return ids
}
