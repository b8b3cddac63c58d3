package controllers

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/modelboard/modelboard/internal/pkg/payments"
)

const webhookTimeout = 15 * time.Second

var webhookDispatcher *payments.Dispatcher

// InitializeWebhookController wires the dispatcher the webhook route uses.
func InitializeWebhookController(d *payments.Dispatcher) {
	webhookDispatcher = d
}

// HandlePaymentWebhook receives one form-encoded gateway notification. The
// contract with the gateway: 200 on every path that was not an authentication
// failure (including deliberate no-ops), 401 on a bad signature, 500 only
// when a retry might actually help.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	values, err := url.ParseQuery(string(c.BodyRaw()))
	if err != nil {
		log.Printf("payment webhook: unparseable body acknowledged and dropped: %v", err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}
	fields := payments.FieldsFromValues(values)

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	ack, err := webhookDispatcher.Handle(ctx, fields)
	if errors.Is(err, payments.ErrSignatureRejected) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	resp := fiber.Map{"ok": true}
	if ack.Duplicate {
		resp["duplicate"] = true
	}
	if ack.Ignored {
		resp["ignored"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandlePaymentWebhookVerify answers the gateway's endpoint verification GET.
// No side effects.
func HandlePaymentWebhookVerify(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "service": "modelboard-payment-webhook"})
}
