package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/database"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripesync"
)

const billingRequestTimeout = 30 * time.Second

func billingContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), billingRequestTimeout)
}

func requestUser(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("userID")
	if err != nil || id <= 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}

// HandleGetBillingStatus reports the mirrored billing state of a user:
// their customer, current subscription and whether anything is still
// running. It never calls Stripe.
func HandleGetBillingStatus(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	repos := repository.Default(database.GetDB())
	customer, err := repos.Customer.GetActiveByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_lookup_failed"})
	}
	if customer == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"customer": nil, "has_active": false})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	hasActive, err := set.Subscriptions.HasActive(customer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}
	current, err := set.Subscriptions.Current(customer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}
	defaultCard, err := set.Cards.DefaultForCustomer(customer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "card_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"customer":     customer,
		"has_active":   hasActive,
		"current":      current,
		"default_card": defaultCard,
	})
}

// HandleCreateCustomer provisions a Stripe customer for the user, or
// returns the one already linked.
func HandleCreateCustomer(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	repos := repository.Default(database.GetDB())
	user, err := repos.User.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := billingContext()
	defer cancel()

	customer, err := set.Customers.Create(ctx, user, map[string]string{"user_id": strconv.FormatUint(uint64(user.ID), 10)})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_create_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"customer": customer})
}

// HandleSyncCustomer refreshes the user's mirror from Stripe, including
// their default card and subscriptions.
func HandleSyncCustomer(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	repos := repository.Default(database.GetDB())
	customer, err := repos.Customer.GetActiveByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_lookup_failed"})
	}
	if customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_customer"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := billingContext()
	defer cancel()

	if err := set.Customers.Sync(ctx, customer); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_sync_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"customer": customer})
}

type setDefaultCardRequest struct {
	SourceToken string `json:"source_token"`
}

// HandleSetDefaultCard attaches a tokenized card as the user's default
// payment source.
func HandleSetDefaultCard(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	var req setDefaultCardRequest
	if err := c.BodyParser(&req); err != nil || req.SourceToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repos := repository.Default(database.GetDB())
	customer, err := repos.Customer.GetActiveByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_lookup_failed"})
	}
	if customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_customer"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := billingContext()
	defer cancel()

	card, err := set.Cards.SetDefaultCard(ctx, customer, req.SourceToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "set_default_card_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"card": card})
}

// HandleDeleteCard detaches a card from the user's customer.
func HandleDeleteCard(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	cardID := c.Params("cardID")
	if cardID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_card_id"})
	}

	repos := repository.Default(database.GetDB())
	customer, err := repos.Customer.GetActiveByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_lookup_failed"})
	}
	if customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_customer"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := billingContext()
	defer cancel()

	if err := set.Cards.DeleteCard(ctx, customer, cardID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete_card_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

type createSubscriptionRequest struct {
	PriceIDs      []string `json:"price_ids"`
	CouponID      string   `json:"coupon_id"`
	TrialFromPlan bool     `json:"trial_from_plan"`
}

// HandleCreateSubscription subscribes the user's customer to the given
// prices.
func HandleCreateSubscription(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil || len(req.PriceIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repos := repository.Default(database.GetDB())
	user, err := repos.User.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	ctx, cancel := billingContext()
	defer cancel()

	customer, err := set.Customers.GetForUser(ctx, user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_create_failed"})
	}
	sub, err := set.Subscriptions.Create(ctx, customer, req.PriceIDs, req.CouponID, req.TrialFromPlan)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_create_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}

type cancelSubscriptionRequest struct {
	Immediately bool `json:"immediately"`
}

// HandleCancelSubscription cancels the user's current subscription, either
// immediately or at the period end.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userID, err := requestUser(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	var req cancelSubscriptionRequest
	_ = c.BodyParser(&req)

	repos := repository.Default(database.GetDB())
	customer, err := repos.Customer.GetActiveByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "customer_lookup_failed"})
	}
	if customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_customer"})
	}

	set := stripesync.NewSyncSetFromDB(database.GetDB())
	current, err := set.Subscriptions.Current(customer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}
	if current == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_current_subscription"})
	}

	ctx, cancel := billingContext()
	defer cancel()

	sub, err := set.Subscriptions.Cancel(ctx, customer, current, req.Immediately)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_cancel_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}
