package services

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

// Canonical meal windows, as clock minutes from midnight.
type mealWindow struct {
	meal       pm.MealType
	startClock int
	endClock   int
}

var mealWindows = []mealWindow{
	{pm.MealBreakfast, 8 * 60, 9 * 60},
	{pm.MealLunch, 12 * 60, 13*60 + 30},
	{pm.MealDinner, 18 * 60, 20 * 60},
}

const minMealGapMinutes = 30

// Buffer weighting tables. Unknown keys fall back to 1.0.
var categoryBufferFactor = map[string]float64{
	"museum":     1.2,
	"attraction": 1.0,
	"restaurant": 1.0,
	"park":       0.8,
	"nature":     0.9,
	"shopping":   1.5,
	"nightlife":  1.3,
}

var transportBufferFactor = map[pm.TransportMode]float64{
	pm.ModeWalk:    0.8,
	pm.ModeTransit: 1.4,
	pm.ModeCar:     1.0,
	pm.ModeFlight:  2.0,
}

// Per-km transport costs plus fixed boarding costs, and flat per-meal costs.
// Unit-less estimates, tuned for readability rather than any one currency.
var perKmCost = map[pm.TransportMode]float64{
	pm.ModeWalk:    0,
	pm.ModeTransit: 0.15,
	pm.ModeCar:     0.5,
	pm.ModeFlight:  0.8,
}

var boardingCost = map[pm.TransportMode]float64{
	pm.ModeTransit: 2,
	pm.ModeFlight:  80,
}

var mealCost = map[pm.MealType]float64{
	pm.MealBreakfast: 10,
	pm.MealLunch:     15,
	pm.MealDinner:    25,
	pm.MealSnack:     5,
}

// ScheduleAssembler inserts meal breaks and adaptive buffers into routed day
// schedules and computes per-day and trip-wide statistics.
type ScheduleAssembler interface {
	Assemble(ctx context.Context, days []pm.DaySchedule, settings pm.OptimizerSettings) ([]pm.DaySchedule, []pm.ProgressEvent, error)
}

type scheduleAssembler struct {
	log zerolog.Logger
}

func NewScheduleAssembler(log zerolog.Logger) ScheduleAssembler {
	return &scheduleAssembler{log: log.With().Str("stage", "assembling").Logger()}
}

func (a *scheduleAssembler) Assemble(ctx context.Context, days []pm.DaySchedule, settings pm.OptimizerSettings) ([]pm.DaySchedule, []pm.ProgressEvent, error) {
	events := []pm.ProgressEvent{stageEvent(pm.StageRouting, 0, "assembling schedule")}

	out := make([]pm.DaySchedule, len(days))
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, events, err
		}
		day.Meals = insertMeals(day, settings)
		day.Buffers = computeBuffers(day, settings)
		day.Stats = dayStats(day)
		out[i] = day
		events = append(events, stageEvent(pm.StageRouting, (i+1)*100/len(days), "assembling schedule"))
	}

	a.log.Debug().Int("days", len(out)).Msg("assembly done")
	events = append(events, stageEvent(pm.StageRouting, 100, "schedule assembled"))
	return out, events, nil
}

// insertMeals places a meal break into any free gap that overlaps a canonical
// window by at least 30 minutes. The suggested location is the nearest
// scheduled visit, measured by time.
func insertMeals(day pm.DaySchedule, settings pm.OptimizerSettings) []pm.MealBreak {
	if len(day.Visits) == 0 {
		return nil
	}

	dayStart := utils.AtClock(day.Date, settings.DayStartHour, 0)
	dayEnd := dayStart.Add(time.Duration(settings.DailyHours * float64(time.Hour)))
	if last := day.Visits[len(day.Visits)-1].Departure; last.After(dayEnd) {
		dayEnd = last
	}

	gaps := freeGaps(day, dayStart, dayEnd)

	var meals []pm.MealBreak
	for _, w := range mealWindows {
		windowStart := utils.AtClock(day.Date, w.startClock/60, w.startClock%60)
		windowEnd := utils.AtClock(day.Date, w.endClock/60, w.endClock%60)

		for _, g := range gaps {
			overlapStart := maxTime(g.start, windowStart)
			overlapEnd := minTime(g.end, windowEnd)
			if overlapEnd.Sub(overlapStart) < minMealGapMinutes*time.Minute {
				continue
			}

			loc, placeID := nearestVisitLocation(day, overlapStart)
			meals = append(meals, pm.MealBreak{
				Type:        w.meal,
				Start:       overlapStart,
				End:         overlapEnd,
				Location:    loc,
				NearPlaceID: placeID,
			})
			break
		}
	}
	return meals
}

type gap struct {
	start time.Time
	end   time.Time
}

// freeGaps are the slices of a day not covered by a visit or by the travel
// part of a leg. Waiting time between a leg's arrival and a time-window
// pinned visit counts as free.
func freeGaps(day pm.DaySchedule, dayStart, dayEnd time.Time) []gap {
	type busy struct {
		from, to time.Time
	}
	var intervals []busy
	for _, v := range day.Visits {
		if leg := inboundLeg(day, v.Place.ID); leg != nil {
			intervals = append(intervals, busy{from: leg.Departure, to: leg.Arrival})
		}
		intervals = append(intervals, busy{from: v.Arrival, to: v.Departure})
	}

	var gaps []gap
	cursor := dayStart
	for _, b := range intervals {
		if b.from.After(cursor) {
			gaps = append(gaps, gap{start: cursor, end: b.from})
		}
		if b.to.After(cursor) {
			cursor = b.to
		}
	}
	if dayEnd.After(cursor) {
		gaps = append(gaps, gap{start: cursor, end: dayEnd})
	}
	return gaps
}

func nearestVisitLocation(day pm.DaySchedule, at time.Time) (pm.Coordinate, string) {
	best := day.Visits[0]
	bestDist := math.MaxFloat64
	for _, v := range day.Visits {
		d := math.Abs(v.Arrival.Sub(at).Minutes())
		if dd := math.Abs(v.Departure.Sub(at).Minutes()); dd < d {
			d = dd
		}
		if d < bestDist {
			bestDist = d
			best = v
		}
	}
	return best.Place.Location, best.Place.ID
}

// computeBuffers derives an adaptive buffer after each visit:
// clamp(min * category * timeOfDay * transport, min, max).
func computeBuffers(day pm.DaySchedule, settings pm.OptimizerSettings) []pm.BufferInterval {
	var buffers []pm.BufferInterval
	for _, v := range day.Visits {
		factors := pm.BufferFactors{
			Category:  factorOr(categoryBufferFactor, v.Place.Category, 1.0),
			TimeOfDay: timeOfDayFactor(v.Departure),
			Transport: 1.0,
		}
		reason := "activity"
		confidence := 0.6
		if next := followingLeg(day, v.Place.ID); next != nil {
			factors.Transport = transportBufferFactor[next.Mode]
			reason = "travel"
			confidence = 0.9
		}

		minutes := float64(settings.MinBufferMinutes) * factors.Category * factors.TimeOfDay * factors.Transport
		clamped := int(clampFloat(minutes, float64(settings.MinBufferMinutes), float64(settings.MaxBufferMinutes)))

		buffers = append(buffers, pm.BufferInterval{
			Start:           v.Departure,
			End:             v.Departure.Add(time.Duration(clamped) * time.Minute),
			DurationMinutes: clamped,
			Reason:          reason,
			Confidence:      confidence,
			Factors:         factors,
		})
	}
	return buffers
}

func inboundLeg(day pm.DaySchedule, placeID string) *pm.TransportLeg {
	for i := range day.Legs {
		if day.Legs[i].ToPlaceID == placeID {
			return &day.Legs[i]
		}
	}
	return nil
}

func followingLeg(day pm.DaySchedule, placeID string) *pm.TransportLeg {
	for i := range day.Legs {
		if day.Legs[i].FromPlaceID == placeID {
			return &day.Legs[i]
		}
	}
	return nil
}

func timeOfDayFactor(t time.Time) float64 {
	switch h := t.Hour(); {
	case h < 11:
		return 0.9
	case h < 14:
		return 1.2
	case h < 17:
		return 1.0
	default:
		return 1.3
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func factorOr(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

func dayStats(day pm.DaySchedule) pm.DayStats {
	stats := pm.DayStats{}

	for _, v := range day.Visits {
		stats.PlaceCount++
		stats.StayMinutes += int(v.Departure.Sub(v.Arrival).Minutes())
		if stats.EarliestStart.IsZero() || v.Arrival.Before(stats.EarliestStart) {
			stats.EarliestStart = v.Arrival
		}
		if v.Departure.After(stats.LatestEnd) {
			stats.LatestEnd = v.Departure
		}
	}
	for _, l := range day.Legs {
		stats.TravelMinutes += l.DurationMinutes
		stats.DistanceKm += l.DistanceKm
		stats.EstimatedCost += l.DistanceKm*perKmCost[l.Mode] + boardingCost[l.Mode]
	}
	for _, m := range day.Meals {
		stats.EstimatedCost += mealCost[m.Type]
	}
	return stats
}

// AggregateTrip sums day statistics into trip-wide numbers.
func AggregateTrip(days []pm.DaySchedule) pm.TripStats {
	stats := pm.TripStats{}
	for _, d := range days {
		stats.TotalPlaces += d.Stats.PlaceCount
		stats.TravelMinutes += d.Stats.TravelMinutes
		stats.StayMinutes += d.Stats.StayMinutes
		stats.DistanceKm += d.Stats.DistanceKm
		stats.EstimatedCost += d.Stats.EstimatedCost
		if d.Failed {
			stats.FailedDays = append(stats.FailedDays, d.DayIndex)
		}
	}
	return stats
}
