package router

import (
	"github.com/modelboard/modelboard/app/controllers"
	"github.com/modelboard/modelboard/internal/pkg/database"
	"github.com/modelboard/modelboard/internal/pkg/env"
	"github.com/modelboard/modelboard/internal/pkg/payments"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	db := database.GetDB()

	// Wire the payment webhook dispatcher against the database-backed
	// stores and the configured gateway secret.
	dispatcher := payments.NewDispatcher(
		payments.NewRepository(db),
		payments.NewUserResolver(db),
		payments.DefaultCatalog(),
		env.GetEnv("PAYMENT_WEBHOOK_SECRET", ""),
		controllers.NewBillingStatusCache(),
	)
	controllers.InitializeWebhookController(dispatcher)

	app.Post("/webhooks/payment", controllers.HandlePaymentWebhook)
	app.Get("/webhooks/payment", controllers.HandlePaymentWebhookVerify)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
