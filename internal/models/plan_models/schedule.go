package plan_models

import "time"

type TransportMode string

const (
	ModeWalk    TransportMode = "walk"
	ModeTransit TransportMode = "public_transit"
	ModeCar     TransportMode = "car"
	ModeFlight  TransportMode = "flight"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// ScheduledVisit is a selected place pinned to a concrete day and time slot.
// Departure is always Arrival plus the requested stay duration.
type ScheduledVisit struct {
	Place     SelectedPlace `json:"place"`
	DayIndex  int           `json:"day_index"`
	Arrival   time.Time     `json:"arrival_time"`
	Departure time.Time     `json:"departure_time"`
}

// TransportLeg links two consecutive visits on the same day.
type TransportLeg struct {
	FromPlaceID     string        `json:"from_place_id"`
	ToPlaceID       string        `json:"to_place_id"`
	Mode            TransportMode `json:"mode"`
	DistanceKm      float64       `json:"distance_km"`
	DurationMinutes int           `json:"duration_minutes"`
	Departure       time.Time     `json:"departure_time"`
	Arrival         time.Time     `json:"arrival_time"`
}

type MealBreak struct {
	Type        MealType   `json:"type"`
	Start       time.Time  `json:"start_time"`
	End         time.Time  `json:"end_time"`
	Location    Coordinate `json:"suggested_location"`
	NearPlaceID string     `json:"near_place_id,omitempty"`
}

// BufferFactors are the weights that produced a buffer, kept for inspection.
type BufferFactors struct {
	Category  float64 `json:"category"`
	TimeOfDay float64 `json:"time_of_day"`
	Transport float64 `json:"transport"`
}

type BufferInterval struct {
	Start           time.Time     `json:"start_time"`
	End             time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Reason          string        `json:"reason"` // travel | meal | activity | transition
	Confidence      float64       `json:"confidence"`
	Factors         BufferFactors `json:"factors"`
}

type DayStats struct {
	PlaceCount    int       `json:"place_count"`
	TravelMinutes int       `json:"travel_minutes"`
	StayMinutes   int       `json:"stay_minutes"`
	DistanceKm    float64   `json:"distance_km"`
	EarliestStart time.Time `json:"earliest_start"`
	LatestEnd     time.Time `json:"latest_end"`
	EstimatedCost float64   `json:"estimated_cost"`
}

type DaySchedule struct {
	Date       time.Time        `json:"date"`
	DayIndex   int              `json:"day_index"`
	Visits     []ScheduledVisit `json:"visits"`
	Legs       []TransportLeg   `json:"transport_legs"`
	Meals      []MealBreak      `json:"meal_breaks"`
	Buffers    []BufferInterval `json:"buffer_intervals"`
	Stats      DayStats         `json:"stats"`
	Failed     bool             `json:"failed,omitempty"`
	FailReason string           `json:"fail_reason,omitempty"`
}

type TripStats struct {
	TotalPlaces     int      `json:"total_places"`
	DroppedPlaces   int      `json:"dropped_places"`
	DroppedPlaceIDs []string `json:"dropped_place_ids,omitempty"`
	TravelMinutes   int      `json:"travel_minutes"`
	StayMinutes     int      `json:"stay_minutes"`
	DistanceKm      float64  `json:"distance_km"`
	EstimatedCost   float64  `json:"estimated_cost"`
	FairnessScore   float64  `json:"fairness_score"`
	SelectionRounds int      `json:"selection_rounds"`
	FailedDays      []int    `json:"failed_days,omitempty"`
}

type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityWarning  ConflictSeverity = "warning"
	SeverityMinor    ConflictSeverity = "minor"
)

type ConflictType string

const (
	ConflictTimeOverlap      ConflictType = "time_overlap"
	ConflictTravelImpossible ConflictType = "travel_impossible"
	ConflictMealTiming       ConflictType = "meal_timing"
)

// Conflict is advisory output: it annotates a schedule, never blocks it.
type Conflict struct {
	Type           ConflictType     `json:"type"`
	Severity       ConflictSeverity `json:"severity"`
	DayIndex       int              `json:"day_index"`
	Description    string           `json:"description"`
	AffectedIDs    []string         `json:"affected_ids"`
	SuggestedFix   string           `json:"suggested_fix"`
	AutoResolvable bool             `json:"auto_resolvable"`
}

// TripSchedule is the whole output of one optimization run. It replaces the
// previous run's schedule wholesale and is read-only once produced.
type TripSchedule struct {
	TripID           string             `json:"trip_id"`
	GeneratedAt      time.Time          `json:"generated_at"`
	AlgorithmVersion string             `json:"algorithm_version"`
	Timezone         string             `json:"timezone"`
	Settings         OptimizerSettings  `json:"settings"`
	Days             []DaySchedule      `json:"days"`
	Stats            TripStats          `json:"stats"`
	MemberFairness   map[string]float64 `json:"member_fairness"`
	Conflicts        []Conflict         `json:"conflicts"`
}
