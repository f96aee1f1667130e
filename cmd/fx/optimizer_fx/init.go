package optimizer_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweave/config"
	"tripweave/internal/repositories"
	"tripweave/internal/services"
)

var Module = fx.Provide(
	provideNormalizer,
	provideSelector,
	provideRouter,
	provideAssembler,
	provideDetector,
	provideOptimizer,
)

func provideNormalizer(log zerolog.Logger) services.PreferenceNormalizer {
	return services.NewPreferenceNormalizer(log)
}

func provideSelector(log zerolog.Logger) services.Selector {
	return services.NewSelector(log)
}

func provideRouter(log zerolog.Logger) services.RouteConstructor {
	return services.NewRouteConstructor(log)
}

func provideAssembler(log zerolog.Logger) services.ScheduleAssembler {
	return services.NewScheduleAssembler(log)
}

func provideDetector(log zerolog.Logger) services.ConflictDetector {
	return services.NewConflictDetector(log)
}

func provideOptimizer(
	tripRepo repositories.TripRepository,
	scheduleRepo repositories.ScheduleRepository,
	normalizer services.PreferenceNormalizer,
	selector services.Selector,
	router services.RouteConstructor,
	assembler services.ScheduleAssembler,
	detector services.ConflictDetector,
	hub services.ProgressHub,
	cfg *config.Config,
	log zerolog.Logger,
) services.OptimizerService {
	return services.NewOptimizerService(
		tripRepo, scheduleRepo,
		normalizer, selector, router, assembler, detector,
		hub, cfg.CacheTTL, log,
	)
}
