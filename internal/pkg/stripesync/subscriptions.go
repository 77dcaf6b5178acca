package stripesync

import (
	"context"
	"fmt"
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// SubscriptionSyncer mirrors the subscriptions of mirrored customers and
// drives the subscription lifecycle against Stripe.
type SubscriptionSyncer struct {
	api           stripeapi.Client
	subscriptions repository.SubscriptionRepository
	coupons       repository.CouponRepository
}

func NewSubscriptionSyncer(api stripeapi.Client, subscriptions repository.SubscriptionRepository, coupons repository.CouponRepository) *SubscriptionSyncer {
	return &SubscriptionSyncer{api: api, subscriptions: subscriptions, coupons: coupons}
}

// SyncFromRemote upserts the mirror row for a subscription document.
func (s *SubscriptionSyncer) SyncFromRemote(ctx context.Context, customer *models.Customer, doc RemoteObject) (*models.Subscription, error) {
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("subscription document without id")
	}

	sub := &models.Subscription{CustomerID: customer.ID}
	sub.StripeID = stripeID
	sub.Livemode = doc.Bool("livemode")
	sub.Metadata = doc.JSON("metadata")
	sub.ApplicationFeePercent = doc.FloatPtr("application_fee_percent")
	sub.AutomaticTax = doc.JSON("automatic_tax")
	sub.BillingCycleAnchor = doc.Time("billing_cycle_anchor")
	sub.BillingThresholds = doc.JSON("billing_thresholds")
	sub.CancelAt = doc.Time("cancel_at")
	sub.CancelAtPeriodEnd = doc.Bool("cancel_at_period_end")
	sub.CanceledAt = doc.Time("canceled_at")
	sub.CancellationDetails = doc.JSON("cancellation_details")
	sub.CollectionMethod = doc.Str("collection_method")
	sub.CurrentPeriodStart = doc.Time("current_period_start")
	sub.CurrentPeriodEnd = doc.Time("current_period_end")
	sub.DaysUntilDue = doc.IntPtr("days_until_due")
	sub.DefaultPaymentMethod = doc.ID("default_payment_method")
	sub.DefaultSource = doc.ID("default_source")
	sub.DefaultTaxRates = doc.JSON("default_tax_rates")
	sub.Discount = doc.JSON("discount")
	sub.EndedAt = doc.Time("ended_at")
	sub.NextPendingInvoiceItemInvoice = doc.Time("next_pending_invoice_item_invoice")
	sub.PauseCollection = doc.JSON("pause_collection")
	sub.PendingInvoiceItemInterval = doc.JSON("pending_invoice_item_interval")
	sub.PendingSetupIntent = doc.ID("pending_setup_intent")
	sub.PendingUpdate = doc.JSON("pending_update")
	sub.Quantity = doc.IntPtr("quantity")
	sub.StartDate = doc.Time("start_date")
	sub.Status = doc.Str("status")
	sub.TrialStart = doc.Time("trial_start")
	sub.TrialEnd = doc.Time("trial_end")
	sub.LatestInvoice = doc.ID("latest_invoice")

	if items := doc.Sub("items"); items != nil {
		sub.Items = items.JSON("data")
	}

	if err := s.subscriptions.Upsert(sub); err != nil {
		return nil, fmt.Errorf("upsert subscription %s: %w", stripeID, err)
	}
	return sub, nil
}

// SyncAllForCustomer mirrors the complete subscription listing of the
// customer, including ended ones Stripe still reports.
func (s *SubscriptionSyncer) SyncAllForCustomer(ctx context.Context, customer *models.Customer) error {
	return s.api.ForEachSubscription(ctx, customer.StripeID, func(doc map[string]interface{}) error {
		_, err := s.SyncFromRemote(ctx, customer, doc)
		return err
	})
}

// Create subscribes the customer to the given prices. An invalid or unknown
// coupon is dropped rather than failing the subscription.
func (s *SubscriptionSyncer) Create(ctx context.Context, customer *models.Customer, priceIDs []string, couponID string, trialFromPlan bool) (*models.Subscription, error) {
	if couponID != "" {
		coupon, err := s.coupons.GetValidByStripeID(couponID)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			couponID = ""
		}
	}

	doc, err := s.api.CreateSubscription(ctx, customer.StripeID, priceIDs, couponID, trialFromPlan)
	if err != nil {
		return nil, fmt.Errorf("create subscription for customer %s: %w", customer.StripeID, err)
	}
	return s.SyncFromRemote(ctx, customer, doc)
}

// UpdatePrice swaps the price of one subscription item, optionally
// prorating the difference.
func (s *SubscriptionSyncer) UpdatePrice(ctx context.Context, customer *models.Customer, sub *models.Subscription, itemID, priceID string, prorate bool) (*models.Subscription, error) {
	doc, err := s.api.UpdateSubscriptionPrice(ctx, sub.StripeID, itemID, priceID, prorate)
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", sub.StripeID, err)
	}
	return s.SyncFromRemote(ctx, customer, doc)
}

// Cancel ends the subscription, either immediately or at the period end.
func (s *SubscriptionSyncer) Cancel(ctx context.Context, customer *models.Customer, sub *models.Subscription, immediately bool) (*models.Subscription, error) {
	doc, err := s.api.CancelSubscription(ctx, sub.StripeID, immediately)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription %s: %w", sub.StripeID, err)
	}
	return s.SyncFromRemote(ctx, customer, doc)
}

// Current returns the customer's trialing or active subscription, or nil.
func (s *SubscriptionSyncer) Current(customer *models.Customer) (*models.Subscription, error) {
	return s.subscriptions.FirstByCustomerAndStatuses(customer.ID, models.SubscriptionStatusCurrent)
}

// Latest returns the most recently mirrored subscription, or nil.
func (s *SubscriptionSyncer) Latest(customer *models.Customer) (*models.Subscription, error) {
	return s.subscriptions.LatestByCustomer(customer.ID)
}

// HasActive reports whether the customer has any subscription that has not
// ended yet.
func (s *SubscriptionSyncer) HasActive(customer *models.Customer) (bool, error) {
	return s.subscriptions.HasUnended(customer.ID, time.Now().UTC())
}

// ListMirrored returns every mirrored subscription of the customer.
func (s *SubscriptionSyncer) ListMirrored(customer *models.Customer) ([]models.Subscription, error) {
	return s.subscriptions.ListByCustomer(customer.ID)
}
