package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

// Effective speeds include the slack real trips have: detours on foot,
// waiting for transit, parking a car, airport procedure for flights.
const (
	walkSpeedKmh    = 5.0
	transitSpeedKmh = 20.0
	carSpeedKmh     = 40.0
	flightSpeedKmh  = 600.0

	flightOverheadMinutes = 120
)

// RouteResult is the RouteConstructor stage output. Dropped places are the
// ones that could not fit any trip day; they are reported, never silently
// discarded.
type RouteResult struct {
	Days    []pm.DaySchedule   `json:"days"`
	Dropped []pm.SelectedPlace `json:"dropped"`
}

// RouteConstructor orders selected places into day schedules with arrival and
// departure times and one transport leg per consecutive pair. Pure and
// swappable; the default implementation is a nearest-neighbor heuristic.
type RouteConstructor interface {
	Construct(ctx context.Context, selected []pm.SelectedPlace, startDate, endDate time.Time, settings pm.OptimizerSettings) (*RouteResult, []pm.ProgressEvent, error)
}

type nearestNeighborRouter struct {
	log zerolog.Logger
}

func NewRouteConstructor(log zerolog.Logger) RouteConstructor {
	return &nearestNeighborRouter{log: log.With().Str("stage", "routing").Logger()}
}

func (r *nearestNeighborRouter) Construct(ctx context.Context, selected []pm.SelectedPlace, startDate, endDate time.Time, settings pm.OptimizerSettings) (*RouteResult, []pm.ProgressEvent, error) {
	events := []pm.ProgressEvent{stageEvent(pm.StageRouting, 0, "constructing routes")}

	departure, destination := findAnchors(selected)
	if departure == nil {
		return nil, events, utils.ErrNoAnchor
	}

	start := utils.DayStart(startDate)
	end := utils.DayStart(endDate)
	dayCount := int(end.Sub(start).Hours()/24) + 1
	if dayCount < 1 {
		dayCount = 1
	}

	remaining := make([]pm.SelectedPlace, 0, len(selected))
	for _, p := range selected {
		if !p.IsAnchor {
			remaining = append(remaining, p)
		}
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })

	budgetMinutes := int(settings.DailyHours * 60)
	days := make([]pm.DaySchedule, 0, dayCount)
	var dropped []pm.SelectedPlace

	currentLoc := departure.Location
	prevID := departure.ID
	cursor := utils.AtClock(start, settings.DayStartHour, 0)

	for dayIdx := 0; dayIdx < dayCount; dayIdx++ {
		dayDate := start.AddDate(0, 0, dayIdx)
		dayStart := utils.AtClock(dayDate, settings.DayStartHour, 0)
		cursor = dayStart

		day := pm.DaySchedule{Date: dayDate, DayIndex: dayIdx}

		// Day one opens at the departure anchor.
		if dayIdx == 0 {
			day.Visits = append(day.Visits, pm.ScheduledVisit{
				Place:     *departure,
				DayIndex:  0,
				Arrival:   cursor,
				Departure: cursor.Add(anchorDwell(departure, settings)),
			})
			cursor = day.Visits[0].Departure
			currentLoc = departure.Location
		}

		// Places whose hard time windows pin them to another day are not
		// eligible today.
		eligible := make([]pm.SelectedPlace, 0, len(remaining))
		for _, p := range remaining {
			if pin, ok := pinnedDay(p, start, dayCount); ok && pin != dayIdx {
				continue
			}
			eligible = append(eligible, p)
		}

		for len(eligible) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, events, err
			}

			idx := nearestIndex(currentLoc, eligible)
			pick := eligible[idx]

			mode, distKm, durMin := legFor(currentLoc, pick.Location, settings)
			arrival := cursor.Add(time.Duration(durMin+settings.MinBufferMinutes) * time.Minute)
			if pick.EarliestArrival != nil && arrival.Before(*pick.EarliestArrival) {
				arrival = *pick.EarliestArrival
			}
			visitEnd := arrival.Add(time.Duration(pick.StayMinutes) * time.Minute)

			fits := int(visitEnd.Sub(dayStart).Minutes()) <= budgetMinutes
			if fits && pick.LatestDeparture != nil && visitEnd.After(*pick.LatestDeparture) {
				fits = false
			}
			if !fits {
				// Defer the least-valuable remaining place to a later day and
				// try again with what is left.
				dropIdx := lowestWishIndex(eligible)
				deferred := eligible[dropIdx]
				eligible = append(eligible[:dropIdx], eligible[dropIdx+1:]...)

				if _, pinned := pinnedDay(deferred, start, dayCount); pinned {
					// A pinned place has no later day to move to.
					remaining = removePlace(remaining, deferred.ID)
					dropped = append(dropped, deferred)
					day.FailReason = fmt.Sprintf("time-window place %s could not be honored", deferred.ID)
				}
				continue
			}

			day.Legs = append(day.Legs, pm.TransportLeg{
				FromPlaceID:     prevID,
				ToPlaceID:       pick.ID,
				Mode:            mode,
				DistanceKm:      distKm,
				DurationMinutes: durMin,
				Departure:       cursor,
				Arrival:         cursor.Add(time.Duration(durMin) * time.Minute),
			})
			day.Visits = append(day.Visits, pm.ScheduledVisit{
				Place:     pick,
				DayIndex:  dayIdx,
				Arrival:   arrival,
				Departure: visitEnd,
			})

			cursor = visitEnd
			currentLoc = pick.Location
			prevID = pick.ID
			remaining = removePlace(remaining, pick.ID)
			eligible = append(eligible[:idx], eligible[idx+1:]...)
		}

		if len(day.Visits) == 0 && len(remaining) > 0 {
			day.Failed = true
			day.FailReason = "daily budget too small for any remaining place"
		}

		days = append(days, day)
		events = append(events, stageEvent(pm.StageRouting, (dayIdx+1)*100/dayCount, fmt.Sprintf("day %d routed", dayIdx+1)))
	}

	// The destination anchor closes the trip, budget or not.
	if destination != nil {
		last := &days[len(days)-1]
		mode, distKm, durMin := legFor(currentLoc, destination.Location, settings)
		arrival := cursor.Add(time.Duration(durMin+settings.MinBufferMinutes) * time.Minute)
		last.Legs = append(last.Legs, pm.TransportLeg{
			FromPlaceID:     prevID,
			ToPlaceID:       destination.ID,
			Mode:            mode,
			DistanceKm:      distKm,
			DurationMinutes: durMin,
			Departure:       cursor,
			Arrival:         cursor.Add(time.Duration(durMin) * time.Minute),
		})
		last.Visits = append(last.Visits, pm.ScheduledVisit{
			Place:     *destination,
			DayIndex:  last.DayIndex,
			Arrival:   arrival,
			Departure: arrival.Add(anchorDwell(destination, settings)),
		})
	}

	dropped = append(dropped, remaining...)
	if len(dropped) > 0 {
		r.log.Warn().Int("dropped", len(dropped)).Msg("places did not fit the trip")
	}
	events = append(events, stageEvent(pm.StageRouting, 100, "routes constructed"))

	return &RouteResult{Days: days, Dropped: dropped}, events, nil
}

// anchorDwell floors an anchor's stay to a positive interval so its
// scheduled visit never collapses to a point in time.
func anchorDwell(p *pm.SelectedPlace, settings pm.OptimizerSettings) time.Duration {
	minutes := p.StayMinutes
	if minutes <= 0 {
		minutes = settings.MinBufferMinutes
	}
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

func findAnchors(selected []pm.SelectedPlace) (departure, destination *pm.SelectedPlace) {
	for i := range selected {
		if !selected[i].IsAnchor {
			continue
		}
		switch selected[i].AnchorRole {
		case "destination":
			destination = &selected[i]
		default:
			if departure == nil {
				departure = &selected[i]
			}
		}
	}
	return departure, destination
}

// pinnedDay maps a hard earliest-arrival constraint onto a trip day index.
func pinnedDay(p pm.SelectedPlace, tripStart time.Time, dayCount int) (int, bool) {
	if p.EarliestArrival == nil {
		return 0, false
	}
	idx := int(utils.DayStart(p.EarliestArrival.In(tripStart.Location())).Sub(tripStart).Hours() / 24)
	if idx < 0 || idx >= dayCount {
		return 0, false
	}
	return idx, true
}

func nearestIndex(from pm.Coordinate, places []pm.SelectedPlace) int {
	best := 0
	bestDist := math.Inf(1)
	for i, p := range places {
		d := utils.HaversineKm(from.Latitude, from.Longitude, p.Location.Latitude, p.Location.Longitude)
		if d < bestDist || (d == bestDist && p.ID < places[best].ID) {
			bestDist = d
			best = i
		}
	}
	return best
}

func lowestWishIndex(places []pm.SelectedPlace) int {
	best := 0
	for i, p := range places {
		if p.NormalizedWish < places[best].NormalizedWish ||
			(p.NormalizedWish == places[best].NormalizedWish && p.ID > places[best].ID) {
			best = i
		}
	}
	return best
}

func removePlace(places []pm.SelectedPlace, id string) []pm.SelectedPlace {
	for i, p := range places {
		if p.ID == id {
			return append(places[:i], places[i+1:]...)
		}
	}
	return places
}

// legFor picks a transport mode by straight-line distance against the
// configured thresholds and estimates the leg duration from the mode's
// effective speed.
func legFor(from, to pm.Coordinate, settings pm.OptimizerSettings) (pm.TransportMode, float64, int) {
	distKm := utils.HaversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)

	var mode pm.TransportMode
	var speed float64
	overhead := 0
	switch {
	case distKm <= settings.WalkMaxKm:
		mode, speed = pm.ModeWalk, walkSpeedKmh
	case distKm <= settings.TransitMaxKm:
		mode, speed = pm.ModeTransit, transitSpeedKmh
	case distKm < settings.FlightMinKm:
		mode, speed = pm.ModeCar, carSpeedKmh
	default:
		mode, speed = pm.ModeFlight, flightSpeedKmh
		overhead = flightOverheadMinutes
	}

	durMin := int(math.Ceil(distKm/speed*60)) + overhead
	return mode, distKm, durMin
}
