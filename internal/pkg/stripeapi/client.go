package stripeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/mirrorstack/stripemirror/internal/pkg/env"
)

// Client is the capability contract against the Stripe API. Every remote
// object crosses this boundary as a plain key-value document so callers
// never depend on SDK struct versions for mirrored fields.
//
// Listing calls drive Stripe's pagination to completion and invoke fn per
// element; a non-nil return means the pass did NOT cover the full listing.
type Client interface {
	GetEvent(ctx context.Context, id string) (map[string]interface{}, error)

	GetCustomer(ctx context.Context, id string) (map[string]interface{}, error)
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (map[string]interface{}, error)
	SetDefaultSource(ctx context.Context, customerID, sourceToken string) (map[string]interface{}, error)
	GetCustomerSource(ctx context.Context, customerID, sourceID string) (map[string]interface{}, error)
	DeleteCustomerSource(ctx context.Context, customerID, sourceID string) error

	ForEachSubscription(ctx context.Context, customerID string, fn func(map[string]interface{}) error) error
	CreateSubscription(ctx context.Context, customerID string, priceIDs []string, couponID string, trialFromPlan bool) (map[string]interface{}, error)
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string, prorate bool) (map[string]interface{}, error)
	CancelSubscription(ctx context.Context, subscriptionID string, immediately bool) (map[string]interface{}, error)

	GetProduct(ctx context.Context, id string) (map[string]interface{}, error)
	ForEachProduct(ctx context.Context, fn func(map[string]interface{}) error) error
	ForEachPrice(ctx context.Context, fn func(map[string]interface{}) error) error
	ForEachCoupon(ctx context.Context, fn func(map[string]interface{}) error) error
}

// StripeClient implements Client on top of the official stripe-go bindings.
type StripeClient struct {
	api *client.API
}

// NewClient creates a StripeClient for the given secret key.
func NewClient(apiKey string) *StripeClient {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeClient{api: api}
}

// NewClientFromEnv creates a StripeClient from STRIPE_SECRET_KEY.
func NewClientFromEnv() *StripeClient {
	return NewClient(strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")))
}

// HasAPIKey reports whether Stripe credentials are configured in the
// environment. The webhook gate skips ingestion entirely without them.
func HasAPIKey() bool {
	return strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")) != ""
}

func (c *StripeClient) GetEvent(ctx context.Context, id string) (map[string]interface{}, error) {
	params := &stripe.EventParams{Params: stripe.Params{Context: ctx}}
	evt, err := c.api.Events.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toDoc(evt)
}

func (c *StripeClient) GetCustomer(ctx context.Context, id string) (map[string]interface{}, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	cus, err := c.api.Customers.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toDoc(cus)
}

func (c *StripeClient) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (map[string]interface{}, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	cus, err := c.api.Customers.New(params)
	if err != nil {
		return nil, err
	}
	return toDoc(cus)
}

func (c *StripeClient) SetDefaultSource(ctx context.Context, customerID, sourceToken string) (map[string]interface{}, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	// Legacy card source parameter, kept for parity with the card flows.
	params.AddExtra("source", sourceToken)
	cus, err := c.api.Customers.Update(customerID, params)
	if err != nil {
		return nil, err
	}
	return toDoc(cus)
}

func (c *StripeClient) GetCustomerSource(ctx context.Context, customerID, sourceID string) (map[string]interface{}, error) {
	params := &stripe.CardParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	}
	card, err := c.api.Cards.Get(sourceID, params)
	if err != nil {
		return nil, err
	}
	return toDoc(card)
}

func (c *StripeClient) DeleteCustomerSource(ctx context.Context, customerID, sourceID string) error {
	params := &stripe.CardParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	}
	_, err := c.api.Cards.Del(sourceID, params)
	return err
}

func (c *StripeClient) ForEachSubscription(ctx context.Context, customerID string, fn func(map[string]interface{}) error) error {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		doc, err := toDoc(iter.Subscription())
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *StripeClient) CreateSubscription(ctx context.Context, customerID string, priceIDs []string, couponID string, trialFromPlan bool) (map[string]interface{}, error) {
	params := &stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	}
	for _, priceID := range priceIDs {
		params.Items = append(params.Items, &stripe.SubscriptionItemsParams{
			Price: stripe.String(priceID),
		})
	}
	if trialFromPlan {
		params.AddExtra("trial_from_plan", "true")
	}
	if couponID != "" {
		params.AddExtra("discounts[0][coupon]", couponID)
	}
	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, err
	}
	return toDoc(sub)
}

func (c *StripeClient) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string, prorate bool) (map[string]interface{}, error) {
	behavior := "create_prorations"
	if !prorate {
		behavior = "none"
	}
	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		ProrationBehavior: stripe.String(behavior),
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
	}
	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return toDoc(sub)
}

func (c *StripeClient) CancelSubscription(ctx context.Context, subscriptionID string, immediately bool) (map[string]interface{}, error) {
	if immediately {
		params := &stripe.SubscriptionCancelParams{Params: stripe.Params{Context: ctx}}
		sub, err := c.api.Subscriptions.Cancel(subscriptionID, params)
		if err != nil {
			return nil, err
		}
		return toDoc(sub)
	}

	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return toDoc(sub)
}

func (c *StripeClient) GetProduct(ctx context.Context, id string) (map[string]interface{}, error) {
	params := &stripe.ProductParams{Params: stripe.Params{Context: ctx}}
	prod, err := c.api.Products.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toDoc(prod)
}

func (c *StripeClient) ForEachProduct(ctx context.Context, fn func(map[string]interface{}) error) error {
	params := &stripe.ProductListParams{}
	params.Context = ctx
	iter := c.api.Products.List(params)
	for iter.Next() {
		doc, err := toDoc(iter.Product())
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *StripeClient) ForEachPrice(ctx context.Context, fn func(map[string]interface{}) error) error {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	iter := c.api.Prices.List(params)
	for iter.Next() {
		doc, err := toDoc(iter.Price())
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *StripeClient) ForEachCoupon(ctx context.Context, fn func(map[string]interface{}) error) error {
	params := &stripe.CouponListParams{}
	params.Context = ctx
	params.AddExpand("data.applies_to")
	iter := c.api.Coupons.List(params)
	for iter.Next() {
		doc, err := toDoc(iter.Coupon())
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return iter.Err()
}

// toDoc converts an SDK struct into the key-value document shape the sync
// core consumes.
func toDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("stripeapi: encode %T: %w", v, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("stripeapi: decode %T: %w", v, err)
	}
	return doc, nil
}
