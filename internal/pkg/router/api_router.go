package router

import (
	"github.com/modelboard/modelboard/app/controllers"
	"github.com/modelboard/modelboard/app/repository"
	"github.com/modelboard/modelboard/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()
	controllers.InitializeBillingController(repos)
	controllers.InitializeUserController(repos)

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Get("/users/:id/profile", controllers.HandleUserProfile)

	// billing reads are internal to the dashboard backend
	internalAuth := middleware.InternalAPIKeyMiddleware()
	v1.Get("/users/:id/subscription", internalAuth, controllers.HandleUserSubscription)
	v1.Get("/users/:id/transactions", internalAuth, controllers.HandleUserTransactions)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
