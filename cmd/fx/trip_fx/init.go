package trip_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tripweave/internal/repositories"
)

var Module = fx.Provide(provideTripRepo, provideScheduleRepo)

func provideTripRepo(db *gorm.DB) repositories.TripRepository {
	return repositories.NewTripRepository(db)
}

func provideScheduleRepo(db *gorm.DB) repositories.ScheduleRepository {
	return repositories.NewScheduleRepository(db)
}
