package stripesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
)

// HandlerFunc applies one validated event kind to the mirror. obj is the
// event's data.object document.
type HandlerFunc func(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error

// Dispatcher runs delivered events through validation, customer linking and
// the kind handler, then marks them processed. The handler table is fixed
// at construction; unknown kinds are stored and marked processed untouched.
type Dispatcher struct {
	events    repository.EventRepository
	validator *Validator
	notifier  Notifier

	customers     *CustomerSyncer
	cards         *CardSyncer
	subscriptions *SubscriptionSyncer
	products      *ProductSyncer
	prices        *PriceSyncer
	coupons       *CouponSyncer

	handlers map[string]HandlerFunc
}

func NewDispatcher(
	events repository.EventRepository,
	validator *Validator,
	notifier Notifier,
	customers *CustomerSyncer,
	cards *CardSyncer,
	subscriptions *SubscriptionSyncer,
	products *ProductSyncer,
	prices *PriceSyncer,
	coupons *CouponSyncer,
) *Dispatcher {
	d := &Dispatcher{
		events:        events,
		validator:     validator,
		notifier:      notifier,
		customers:     customers,
		cards:         cards,
		subscriptions: subscriptions,
		products:      products,
		prices:        prices,
		coupons:       coupons,
	}
	d.handlers = map[string]HandlerFunc{
		"customer.created": handleCustomerUpsert,
		"customer.updated": handleCustomerUpsert,
		"customer.deleted": handleCustomerDeleted,

		"customer.source.created": handleSourceUpsert,
		"customer.source.updated": handleSourceUpsert,
		"customer.source.deleted": handleSourceDeleted,

		"customer.subscription.created":        handleSubscriptionUpsert,
		"customer.subscription.updated":        handleSubscriptionUpsert,
		"customer.subscription.deleted":        handleSubscriptionUpsert,
		"customer.subscription.trial_will_end": handleSubscriptionUpsert,

		"product.created": handleProductUpsert,
		"product.updated": handleProductUpsert,
		"product.deleted": handleProductDeleted,

		"price.created": handlePriceUpsert,
		"price.updated": handlePriceUpsert,
		"price.deleted": handlePriceDeleted,

		"coupon.created": handleCouponUpsert,
		"coupon.updated": handleCouponUpsert,
		"coupon.deleted": handleCouponDeleted,
	}
	return d
}

// Process runs the full pipeline for one stored event. Re-entry on an
// already processed event is a no-op, so retried deliveries and crash
// recovery converge on the same final state. The handler lookup comes
// first: kinds nobody registered for are marked processed untouched,
// without validation or customer linking.
func (d *Dispatcher) Process(ctx context.Context, event *models.Event) error {
	if event.Processed {
		return nil
	}

	handler, ok := d.handlers[event.Kind]
	if !ok {
		log.Debugf("no handler for event kind %s, ignoring", event.Kind)
		return d.markProcessed(event)
	}

	if err := d.validator.Validate(ctx, event); err != nil {
		d.recordError(event, err)
		return err
	}
	if event.Valid == nil || !*event.Valid {
		log.Warnf("event %s (%s) failed validation, leaving unprocessed", event.StripeID, event.Kind)
		return nil
	}

	obj := d.eventObject(event)

	if err := d.linkCustomer(event, obj); err != nil {
		d.recordError(event, err)
		return err
	}

	if err := handler(ctx, d, event, obj); err != nil {
		d.recordError(event, err)
		return err
	}

	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, event); err != nil {
			log.Warnf("notify for event %s: %v", event.StripeID, err)
		}
	}

	return d.markProcessed(event)
}

func (d *Dispatcher) markProcessed(event *models.Event) error {
	now := time.Now().UTC()
	event.Processed = true
	event.ProcessedAt = &now
	event.ProcessingError = ""
	return d.events.Update(event)
}

func (d *Dispatcher) eventObject(event *models.Event) RemoteObject {
	doc, err := ParseDocument([]byte(event.Message()))
	if err != nil {
		return nil
	}
	return EventObject(doc)
}

// errUnknownCustomer marks an event referencing a customer that is not
// mirrored. Redelivery cannot fix that, so ingestion acknowledges it.
var errUnknownCustomer = errors.New("customer not mirrored")

// linkCustomer binds the event to the mirrored customer it concerns.
// customer.created carries a customer that cannot be mirrored yet, so it is
// linked after its own handler ran. Kinds outside the customer.* family
// have no customer to link.
func (d *Dispatcher) linkCustomer(event *models.Event, obj RemoteObject) error {
	if obj == nil {
		return nil
	}

	var customerStripeID string
	switch event.Kind {
	case "customer.created":
		return nil
	case "customer.updated", "customer.deleted":
		customerStripeID = obj.Str("id")
	default:
		customerStripeID = obj.ID("customer")
	}
	if customerStripeID == "" {
		return nil
	}

	customer, err := d.customers.GetByStripeID(customerStripeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("event %s references unknown customer %s: %w", event.StripeID, customerStripeID, errUnknownCustomer)
	}
	if err != nil {
		return err
	}
	event.CustomerID = &customer.ID
	return nil
}

func (d *Dispatcher) recordError(event *models.Event, cause error) {
	event.ProcessingError = cause.Error()
	if err := d.events.Update(event); err != nil {
		log.Errorf("store processing error of event %s: %v", event.StripeID, err)
	}
}

func (d *Dispatcher) linkedCustomer(event *models.Event) (*models.Customer, error) {
	if event.CustomerID == nil {
		return nil, fmt.Errorf("event %s has no linked customer", event.StripeID)
	}
	return d.customers.GetByID(*event.CustomerID)
}

func handleCustomerUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	customer, err := d.customers.SyncFromRemote(ctx, obj)
	if err != nil {
		return err
	}
	event.CustomerID = &customer.ID
	return nil
}

func handleCustomerDeleted(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	return d.customers.SoftDelete(obj.Str("id"))
}

func handleSourceUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	customer, err := d.linkedCustomer(event)
	if err != nil {
		return err
	}
	_, err = d.cards.SyncFromRemote(ctx, customer, obj)
	return err
}

func handleSourceDeleted(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	return d.cards.Delete(obj.Str("id"))
}

func handleSubscriptionUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	customer, err := d.linkedCustomer(event)
	if err != nil {
		return err
	}
	if _, err := d.subscriptions.SyncFromRemote(ctx, customer, obj); err != nil {
		return err
	}
	// The subscription write lands before the refresh so a failed refresh
	// still leaves the delivered state mirrored, while the event stays
	// unprocessed for a redelivery to re-drive.
	if err := d.customers.Sync(ctx, customer); err != nil {
		return fmt.Errorf("refresh customer %s after subscription event: %w", customer.StripeID, err)
	}
	return nil
}

func handleProductUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	_, err := d.products.Sync(ctx, obj)
	return err
}

func handleProductDeleted(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	return d.products.SoftDelete(obj.Str("id"))
}

func handlePriceUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	_, err := d.prices.Sync(ctx, obj)
	return err
}

func handlePriceDeleted(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	return d.prices.SoftDelete(obj.Str("id"))
}

func handleCouponUpsert(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	_, err := d.coupons.Sync(ctx, obj)
	return err
}

func handleCouponDeleted(ctx context.Context, d *Dispatcher, event *models.Event, obj RemoteObject) error {
	return d.coupons.SoftDelete(obj.Str("id"))
}
