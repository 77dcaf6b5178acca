package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/mirrorstack/stripemirror/internal/pkg/database"
	"github.com/mirrorstack/stripemirror/internal/pkg/env"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripesync"
)

// HandleStripeWebhook receives event deliveries from Stripe. The endpoint
// always acknowledges duplicates so Stripe stops redelivering, and rejects
// payloads whose signature does not match the configured endpoint secret.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if secret != "" {
		_, err := webhook.ConstructEventWithOptions(rawBody, signature, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		}
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := set.Ingestor.Ingest(ctx, rawBody)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}
	switch result {
	case stripesync.IngestDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case stripesync.IngestSkipped:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}
