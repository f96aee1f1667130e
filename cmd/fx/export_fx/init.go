package export_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweave/internal/services"
)

var Module = fx.Provide(provideExportService)

func provideExportService(log zerolog.Logger) services.ExportService {
	return services.NewExportService(log)
}
