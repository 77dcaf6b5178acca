package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mirrorstack/stripemirror/internal/pkg/cache"
	"github.com/mirrorstack/stripemirror/internal/pkg/database"
	"github.com/mirrorstack/stripemirror/internal/pkg/env"
	"github.com/mirrorstack/stripemirror/internal/pkg/router"
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

	app := fiber.New(fiber.Config{})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
