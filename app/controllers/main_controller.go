package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mirrorstack/stripemirror/internal/pkg/database"
)

// HandleHealth reports liveness and database reachability.
func HandleHealth(c *fiber.Ctx) error {
	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
