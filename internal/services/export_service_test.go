package services

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pm "tripweave/internal/models/plan_models"
)

func exportFixture() *pm.TripSchedule {
	day := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	return &pm.TripSchedule{
		TripID:           "trip-1",
		GeneratedAt:      day,
		AlgorithmVersion: AlgorithmVersion,
		Timezone:         "UTC",
		Settings:         pm.DefaultSettings(),
		Days: []pm.DaySchedule{
			{
				Date:     day,
				DayIndex: 1,
				Visits: []pm.ScheduledVisit{
					visitAt("museum", day, 9, 0, 11, 0, "museum"),
				},
				Legs: []pm.TransportLeg{
					{
						FromPlaceID: "hotel", ToPlaceID: "museum",
						Mode: pm.ModeCar, DistanceKm: 30, DurationMinutes: 45,
						Departure: day.Add(8 * time.Hour), Arrival: day.Add(8*time.Hour + 45*time.Minute),
					},
					{
						FromPlaceID: "museum", ToPlaceID: "cafe",
						Mode: pm.ModeWalk, DistanceKm: 0.4, DurationMinutes: 5,
						Departure: day.Add(11 * time.Hour), Arrival: day.Add(11*time.Hour + 5*time.Minute),
					},
				},
				Meals: []pm.MealBreak{
					{
						Type:     pm.MealLunch,
						Start:    day.Add(12 * time.Hour),
						End:      day.Add(12*time.Hour + 45*time.Minute),
						Location: pm.Coordinate{Latitude: 48.86, Longitude: 2.34},
					},
				},
			},
		},
		Stats: pm.TripStats{TotalPlaces: 1},
	}
}

func TestExportDocument_RoundTrips(t *testing.T) {
	svc := NewExportService(zerolog.Nop())
	original := exportFixture()

	data, err := svc.ExportDocument(original)
	require.NoError(t, err)

	parsed, err := svc.ParseDocument(data)
	require.NoError(t, err)

	assert.Equal(t, original.TripID, parsed.TripID)
	assert.Equal(t, original.AlgorithmVersion, parsed.AlgorithmVersion)
	require.Len(t, parsed.Days, 1)
	assert.Equal(t, original.Days[0].Visits[0].Place.ID, parsed.Days[0].Visits[0].Place.ID)
	assert.True(t, original.Days[0].Visits[0].Arrival.Equal(parsed.Days[0].Visits[0].Arrival))
	require.Len(t, parsed.Days[0].Meals, 1)
	assert.Equal(t, pm.MealLunch, parsed.Days[0].Meals[0].Type)
}

func TestExportDocument_NilSchedule(t *testing.T) {
	svc := NewExportService(zerolog.Nop())
	_, err := svc.ExportDocument(nil)
	assert.Error(t, err)
}

func TestParseDocument_RejectsMissingTripID(t *testing.T) {
	svc := NewExportService(zerolog.Nop())
	_, err := svc.ParseDocument([]byte(`{"days":[]}`))
	assert.Error(t, err)
}

func TestParseDocument_RejectsMalformedJSON(t *testing.T) {
	svc := NewExportService(zerolog.Nop())
	_, err := svc.ParseDocument([]byte(`{not json`))
	assert.Error(t, err)
}

func TestExportCalendar_ContainsVisitsMealsAndLongLegs(t *testing.T) {
	svc := NewExportService(zerolog.Nop())

	out, err := svc.ExportCalendar(exportFixture())
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "visit-museum@tripweave")
	assert.Contains(t, out, "meal-lunch-day1@tripweave")
	assert.Contains(t, out, "leg-hotel-museum@tripweave", "45 minute leg is exported")
	assert.NotContains(t, out, "leg-museum-cafe@tripweave", "5 minute walk stays out of the feed")

	// One VEVENT per visit, meal and qualifying leg.
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
}
