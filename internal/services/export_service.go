package services

import (
	"encoding/json"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

// Transport legs shorter than this stay out of the calendar export.
const minCalendarLegMinutes = 15

// ExportService renders a completed TripSchedule for downstream consumers: a
// structured document mirroring the data model 1:1, and a calendar feed.
type ExportService interface {
	ExportDocument(schedule *pm.TripSchedule) ([]byte, error)
	ParseDocument(data []byte) (*pm.TripSchedule, error)
	ExportCalendar(schedule *pm.TripSchedule) (string, error)
}

type exportService struct {
	log zerolog.Logger
}

func NewExportService(log zerolog.Logger) ExportService {
	return &exportService{log: log.With().Str("component", "export").Logger()}
}

func (e *exportService) ExportDocument(schedule *pm.TripSchedule) ([]byte, error) {
	if schedule == nil {
		return nil, utils.ErrInvalidInput
	}
	return json.MarshalIndent(schedule, "", "  ")
}

func (e *exportService) ParseDocument(data []byte) (*pm.TripSchedule, error) {
	var schedule pm.TripSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, err
	}
	if schedule.TripID == "" {
		return nil, utils.ErrInvalidInput
	}
	return &schedule, nil
}

func (e *exportService) ExportCalendar(schedule *pm.TripSchedule) (string, error) {
	if schedule == nil {
		return "", utils.ErrInvalidInput
	}
	loc := utils.LocationOrUTC(schedule.Timezone)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tripweave//itinerary//EN")

	for _, day := range schedule.Days {
		for _, v := range day.Visits {
			ev := cal.AddEvent(fmt.Sprintf("visit-%s@tripweave", v.Place.ID))
			ev.SetStartAt(v.Arrival.In(loc))
			ev.SetEndAt(v.Departure.In(loc))
			ev.SetSummary(v.Place.Name)
			ev.SetLocation(fmt.Sprintf("%f,%f", v.Place.Location.Latitude, v.Place.Location.Longitude))
			ev.SetDescription(visitDescription(v))
		}
		for _, m := range day.Meals {
			ev := cal.AddEvent(fmt.Sprintf("meal-%s-day%d@tripweave", m.Type, day.DayIndex))
			ev.SetStartAt(m.Start.In(loc))
			ev.SetEndAt(m.End.In(loc))
			ev.SetSummary(fmt.Sprintf("%s break", m.Type))
			ev.SetLocation(fmt.Sprintf("%f,%f", m.Location.Latitude, m.Location.Longitude))
		}
		for _, l := range day.Legs {
			if l.DurationMinutes < minCalendarLegMinutes {
				continue
			}
			ev := cal.AddEvent(fmt.Sprintf("leg-%s-%s@tripweave", l.FromPlaceID, l.ToPlaceID))
			ev.SetStartAt(l.Departure.In(loc))
			ev.SetEndAt(l.Arrival.In(loc))
			ev.SetSummary(fmt.Sprintf("%s (%.1f km)", l.Mode, l.DistanceKm))
		}
	}

	return cal.Serialize(), nil
}

func visitDescription(v pm.ScheduledVisit) string {
	stay := v.Departure.Sub(v.Arrival).Round(time.Minute)
	return fmt.Sprintf("category: %s\nstay: %s\nrequested by: %s\ndesire rating: %d/5",
		v.Place.Category, stay, v.Place.MemberID, v.Place.WishLevel)
}
