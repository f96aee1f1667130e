package db_models

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	BaseModel
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Timezone  string

	Members []Member
	Places  []CandidatePlace
}

type Member struct {
	BaseModel
	TripID      uuid.UUID `gorm:"type:uuid;index"`
	DisplayName string
}

// CandidatePlace is the raw wish record a member submits, plus the
// scheduling flags the optimizer writes back after a run.
type CandidatePlace struct {
	BaseModel
	TripID      uuid.UUID `gorm:"type:uuid;index"`
	MemberID    uuid.UUID `gorm:"type:uuid;index"`
	Name        string
	Latitude    float64
	Longitude   float64
	WishLevel   int // 1..5
	StayMinutes int
	Category    string

	EarliestArrival *time.Time
	LatestDeparture *time.Time

	IsAnchor   bool
	AnchorRole string // "departure" | "destination"

	// Written by the reset-then-apply scheduling transaction.
	IsScheduled    bool
	ScheduledDay   int
	ScheduledStart *int64 // unix seconds
	ScheduledEnd   *int64
}
