package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/modelboard/modelboard/app/repository"
	"github.com/modelboard/modelboard/internal/pkg/cache"
	"github.com/modelboard/modelboard/internal/pkg/database"
	"github.com/modelboard/modelboard/internal/pkg/env"
	"github.com/modelboard/modelboard/internal/pkg/metrics/counter"
	"github.com/modelboard/modelboard/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// drain pending profile view counters to the database once a minute
	go func() {
		for range time.Tick(time.Minute) {
			if err := counter.FlushAll(); err != nil {
				log.Printf("failed to flush profile view counters: %v", err)
			}
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "ModelBoard",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
