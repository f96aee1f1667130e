package progress_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweave/internal/services"
)

var Module = fx.Provide(provideProgressHub)

func provideProgressHub(log zerolog.Logger) services.ProgressHub {
	return services.NewProgressHub(log)
}
