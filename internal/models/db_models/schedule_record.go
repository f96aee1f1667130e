package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TripScheduleRecord stores one optimization run's full output as a jsonb
// payload. At most one record per trip carries Active=true; the schedule
// repository enforces that inside the save transaction.
type TripScheduleRecord struct {
	BaseModel
	TripID           uuid.UUID `gorm:"type:uuid;index"`
	Active           bool
	AlgorithmVersion string
	GeneratedAt      int64 // unix seconds

	Settings datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Payload  datatypes.JSON `gorm:"type:jsonb"`
}
