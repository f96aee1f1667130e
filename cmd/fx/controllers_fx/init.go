package controllers_fx

import (
	"go.uber.org/fx"

	"tripweave/config"
	"tripweave/internal/api/controllers"
	"tripweave/internal/services"
)

var Module = fx.Provide(
	provideOptimizeController,
	provideScheduleController,
	provideProgressController,
)

func provideOptimizeController(optimizer services.OptimizerService, cfg *config.Config) *controllers.OptimizeController {
	return controllers.NewOptimizeController(optimizer, cfg.Optimizer)
}

func provideScheduleController(optimizer services.OptimizerService, exporter services.ExportService) *controllers.ScheduleController {
	return controllers.NewScheduleController(optimizer, exporter)
}

func provideProgressController(hub services.ProgressHub) *controllers.ProgressController {
	return controllers.NewProgressController(hub)
}
