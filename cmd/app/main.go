package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"tripweave/cmd/fx/controllers_fx"
	"tripweave/cmd/fx/db_fx"
	"tripweave/cmd/fx/export_fx"
	"tripweave/cmd/fx/optimizer_fx"
	"tripweave/cmd/fx/progress_fx"
	"tripweave/cmd/fx/trip_fx"
	"tripweave/config"
	"tripweave/internal/api/controllers"
	"tripweave/pkg/logging"
	"tripweave/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(ProvideConfig, ProvideLogger),
		db_fx.Module,
		trip_fx.Module,
		progress_fx.Module,
		optimizer_fx.Module,
		export_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func ProvideConfig() *config.Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.NewLogger(cfg.Server.AppEnv)
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Server.Port)
				log.Printf("Starting HTTP server at %s", addr)
				if err := engine.Run(addr); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	cfg *config.Config,
	optimizeController *controllers.OptimizeController,
	scheduleController *controllers.ScheduleController,
	progressController *controllers.ProgressController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))

	RegisterRoutes(r, optimizeController, scheduleController, progressController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	optimizeController *controllers.OptimizeController,
	scheduleController *controllers.ScheduleController,
	progressController *controllers.ProgressController) {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	cacheStore := cache.New(30*time.Second, time.Minute)
	caching := middleware.ResponseCache(cacheStore, 30*time.Second)

	trips := r.Group("/trips")
	trips.POST("/:tripId/optimize", middleware.JWTAuthMiddleware(), optimizeController.Optimize)
	trips.GET("/:tripId/schedule", caching, scheduleController.GetActiveSchedule)
	trips.GET("/:tripId/schedule/export", caching, scheduleController.ExportSchedule)
	trips.GET("/:tripId/places", caching, scheduleController.GetCandidatePlaces)
	trips.GET("/:tripId/progress", progressController.GetProgress)
	trips.GET("/:tripId/progress/stream", progressController.StreamProgress)
}
