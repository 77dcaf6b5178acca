package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mirrorstack/stripemirror/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)

	// Stripe posts event deliveries here.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
