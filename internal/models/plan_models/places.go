package plan_models

import "time"

// Member is a read-only snapshot of one trip participant, taken at the start
// of an optimization run.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	PlaceCount  int    `json:"place_count"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CandidatePlace is a place one member wants to visit, or a system anchor
// (trip departure / destination). Anchors carry no wish level and skip
// normalization entirely.
type CandidatePlace struct {
	ID              string     `json:"id"`
	MemberID        string     `json:"member_id"`
	Name            string     `json:"name"`
	Location        Coordinate `json:"location"`
	WishLevel       int        `json:"wish_level"` // 1..5
	StayMinutes     int        `json:"stay_minutes"`
	Category        string     `json:"category"`
	EarliestArrival *time.Time `json:"earliest_arrival,omitempty"`
	LatestDeparture *time.Time `json:"latest_departure,omitempty"`
	IsAnchor        bool       `json:"is_anchor"`
	AnchorRole      string     `json:"anchor_role,omitempty"` // "departure" | "destination"
}

// NormalizedPlace carries the wish level after per-member rescaling.
// NormalizedWish is in [0.1, 1.0] for member places; anchors keep 0.
type NormalizedPlace struct {
	CandidatePlace
	NormalizedWish float64 `json:"normalized_wish_level"`
}

// SelectedPlace records when and under which group fairness score a place
// made it into the itinerary.
type SelectedPlace struct {
	NormalizedPlace
	Round           int     `json:"selection_round"`
	FairnessAtRound float64 `json:"fairness_at_round"`
}
