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
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// cardDocSyncer mirrors a single card document for a customer.
type cardDocSyncer interface {
	SyncFromRemote(ctx context.Context, customer *models.Customer, doc RemoteObject) (*models.Card, error)
}

// subscriptionListSyncer mirrors the full subscription listing of a customer.
type subscriptionListSyncer interface {
	SyncAllForCustomer(ctx context.Context, customer *models.Customer) error
}

// CustomerSyncer mirrors Stripe customers and coordinates the dependent
// card and subscription mirrors.
type CustomerSyncer struct {
	api       stripeapi.Client
	customers repository.CustomerRepository
	users     repository.UserRepository

	cards         cardDocSyncer
	subscriptions subscriptionListSyncer
}

func NewCustomerSyncer(api stripeapi.Client, customers repository.CustomerRepository, users repository.UserRepository) *CustomerSyncer {
	return &CustomerSyncer{api: api, customers: customers, users: users}
}

// SyncFromRemote upserts the local mirror row from a customer document. A
// document carrying the deleted flag soft deletes the mirror instead, and a
// mirror already purged stays purged regardless of what the document says.
func (s *CustomerSyncer) SyncFromRemote(ctx context.Context, doc RemoteObject) (*models.Customer, error) {
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("customer document without id")
	}

	if doc.Bool("deleted") {
		if err := s.customers.SoftDelete(stripeID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("soft delete customer %s: %w", stripeID, err)
		}
		return s.customers.GetByStripeID(stripeID)
	}

	existing, err := s.customers.GetByStripeID(stripeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsActive {
		log.Debugf("ignoring update for purged customer %s", stripeID)
		return existing, nil
	}

	customer := &models.Customer{}
	customer.StripeID = stripeID
	applyCustomerFields(customer, doc)

	if err := s.customers.Upsert(customer); err != nil {
		return nil, fmt.Errorf("upsert customer %s: %w", stripeID, err)
	}
	return customer, nil
}

func applyCustomerFields(c *models.Customer, doc RemoteObject) {
	c.Livemode = doc.Bool("livemode")
	c.Metadata = doc.JSON("metadata")
	c.Email = doc.Str("email")
	c.Name = doc.Str("name")
	c.Description = doc.Str("description")
	c.Address = doc.JSON("address")
	c.Balance = ConvertAmount(doc.Int("balance"), doc.Str("currency"))
	c.Currency = doc.Str("currency")
	c.Delinquent = doc.Bool("delinquent")
	c.DefaultSource = doc.ID("default_source")
	c.Shipping = doc.JSON("shipping")
	c.TaxExempt = doc.Str("tax_exempt")
	c.PreferredLocales = doc.JSON("preferred_locales")
	c.InvoicePrefix = doc.Str("invoice_prefix")
	c.InvoiceSettings = doc.JSON("invoice_settings")
	c.IsActive = true
}

// Create provisions a Stripe customer for the user and binds the mirror row
// to them. The remote customer is created first so a storage failure can
// never leave the user billed without a mirror to find it by.
func (s *CustomerSyncer) Create(ctx context.Context, user *models.User, metadata map[string]string) (*models.Customer, error) {
	if existing, err := s.customers.GetActiveByUserID(user.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	email := user.BillingEmail
	if email == "" {
		email = user.Email
	}
	doc, err := s.api.CreateCustomer(ctx, email, metadata)
	if err != nil {
		return nil, fmt.Errorf("create stripe customer for user %d: %w", user.ID, err)
	}

	customer, err := s.SyncFromRemote(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.LinkUser(customer, user); err != nil {
		return nil, err
	}

	if err := s.Sync(ctx, customer); err != nil {
		log.Warnf("initial sync of customer %s: %v", customer.StripeID, err)
	}
	return customer, nil
}

// LinkUser binds a mirror row to a local user. Rebinding to a different
// user is refused.
func (s *CustomerSyncer) LinkUser(customer *models.Customer, user *models.User) error {
	if customer.UserID != nil {
		if *customer.UserID != user.ID {
			return fmt.Errorf("customer %s already linked to user %d", customer.StripeID, *customer.UserID)
		}
		return nil
	}
	customer.UserID = &user.ID
	return s.customers.Update(customer)
}

// GetForUser returns the user's active customer, creating one on demand.
func (s *CustomerSyncer) GetForUser(ctx context.Context, user *models.User) (*models.Customer, error) {
	customer, err := s.customers.GetActiveByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}
	return s.Create(ctx, user, nil)
}

// Sync refreshes the mirror from the live customer object and cascades into
// the default card and the subscription listing. Card failures degrade to a
// warning; subscription failures abort so the listing is never half mirrored.
func (s *CustomerSyncer) Sync(ctx context.Context, customer *models.Customer) error {
	if !customer.IsActive {
		log.Debugf("skipping sync of inactive customer %s", customer.StripeID)
		return nil
	}

	raw, err := s.api.GetCustomer(ctx, customer.StripeID)
	if err != nil {
		if stripeapi.IsNotFound(err) || stripeapi.IsInvalidRequest(err) {
			log.Infof("customer %s gone upstream, deactivating mirror", customer.StripeID)
			return s.customers.SoftDelete(customer.StripeID, time.Now().UTC())
		}
		return fmt.Errorf("retrieve customer %s: %w", customer.StripeID, err)
	}
	doc := RemoteObject(raw)

	if doc.Bool("deleted") {
		return s.customers.SoftDelete(customer.StripeID, time.Now().UTC())
	}

	applyCustomerFields(customer, doc)
	if err := s.customers.Update(customer); err != nil {
		return fmt.Errorf("update customer %s: %w", customer.StripeID, err)
	}

	if sourceID := doc.ID("default_source"); sourceID != "" && s.cards != nil {
		if err := s.syncDefaultSource(ctx, customer, sourceID); err != nil {
			log.Warnf("sync default source %s of customer %s: %v", sourceID, customer.StripeID, err)
		}
	}

	if s.subscriptions != nil {
		if err := s.subscriptions.SyncAllForCustomer(ctx, customer); err != nil {
			return fmt.Errorf("sync subscriptions of customer %s: %w", customer.StripeID, err)
		}
	}
	return nil
}

func (s *CustomerSyncer) syncDefaultSource(ctx context.Context, customer *models.Customer, sourceID string) error {
	doc, err := s.api.GetCustomerSource(ctx, customer.StripeID, sourceID)
	if err != nil {
		return err
	}
	_, err = s.cards.SyncFromRemote(ctx, customer, doc)
	return err
}

// SyncAllForUsers walks every local user and refreshes their mirror. Users
// without a customer are skipped, and a customer deleted upstream only
// deactivates that one mirror.
func (s *CustomerSyncer) SyncAllForUsers(ctx context.Context) error {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		users, err := s.users.List(offset, pageSize)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if len(users) == 0 {
			return nil
		}
		for i := range users {
			customer, err := s.customers.GetActiveByUserID(users[i].ID)
			if err != nil {
				return err
			}
			if customer == nil {
				continue
			}
			if err := s.Sync(ctx, customer); err != nil {
				return err
			}
		}
		if len(users) < pageSize {
			return nil
		}
	}
}

// SoftDelete deactivates the mirror row without touching Stripe.
func (s *CustomerSyncer) SoftDelete(stripeID string) error {
	return s.customers.SoftDelete(stripeID, time.Now().UTC())
}

// GetByStripeID exposes the mirror lookup to webhook handling.
func (s *CustomerSyncer) GetByStripeID(stripeID string) (*models.Customer, error) {
	return s.customers.GetByStripeID(stripeID)
}

// GetByID returns the mirror row by its local id.
func (s *CustomerSyncer) GetByID(id uint) (*models.Customer, error) {
	return s.customers.GetByID(id)
}
