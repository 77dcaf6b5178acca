package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/mirrorstack/stripemirror/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	v1 := api.Group("/v1")
	v1.Get("/users/:userID/billing", controllers.HandleGetBillingStatus)
	v1.Post("/users/:userID/customer", controllers.HandleCreateCustomer)
	v1.Post("/users/:userID/customer/sync", controllers.HandleSyncCustomer)
	v1.Post("/users/:userID/cards/default", controllers.HandleSetDefaultCard)
	v1.Delete("/users/:userID/cards/:cardID", controllers.HandleDeleteCard)
	v1.Post("/users/:userID/subscriptions", controllers.HandleCreateSubscription)
	v1.Post("/users/:userID/subscriptions/cancel", controllers.HandleCancelSubscription)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
