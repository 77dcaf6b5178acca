package stripesync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// customerResyncer lets the card flows refresh the owning customer from a
// document returned by a customer mutation.
type customerResyncer interface {
	SyncFromRemote(ctx context.Context, doc RemoteObject) (*models.Customer, error)
}

// CardSyncer mirrors the legacy card payment sources of a customer.
type CardSyncer struct {
	api   stripeapi.Client
	cards repository.CardRepository

	customers customerResyncer
}

func NewCardSyncer(api stripeapi.Client, cards repository.CardRepository) *CardSyncer {
	return &CardSyncer{api: api, cards: cards}
}

// SyncFromRemote upserts the mirror row for a card document. Non-card
// payment sources are ignored and yield (nil, nil).
func (s *CardSyncer) SyncFromRemote(ctx context.Context, customer *models.Customer, doc RemoteObject) (*models.Card, error) {
	if doc.Str("object") != "card" {
		return nil, nil
	}
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("card document without id")
	}

	card := &models.Card{CustomerID: customer.ID}
	card.StripeID = stripeID
	card.Livemode = doc.Bool("livemode")
	card.Metadata = doc.JSON("metadata")
	card.Name = doc.Str("name")
	card.AddressLine1 = doc.Str("address_line1")
	card.AddressLine1Check = doc.Str("address_line1_check")
	card.AddressLine2 = doc.Str("address_line2")
	card.AddressCity = doc.Str("address_city")
	card.AddressState = doc.Str("address_state")
	card.AddressZip = doc.Str("address_zip")
	card.AddressZipCheck = doc.Str("address_zip_check")
	card.AddressCountry = doc.Str("address_country")
	card.Brand = doc.Str("brand")
	card.Country = doc.Str("country")
	card.CVCCheck = doc.Str("cvc_check")
	card.DynamicLast4 = doc.Str("dynamic_last4")
	card.ExpMonth = int(doc.Int("exp_month"))
	card.ExpYear = int(doc.Int("exp_year"))
	card.Funding = doc.Str("funding")
	card.Last4 = doc.Str("last4")
	card.Fingerprint = doc.Str("fingerprint")
	card.TokenizationMethod = doc.Str("tokenization_method")

	if err := s.cards.Upsert(card); err != nil {
		return nil, fmt.Errorf("upsert card %s: %w", stripeID, err)
	}
	return card, nil
}

// DefaultForCustomer returns the mirrored card the customer's default_source
// pointer names. Customers without a default, with a non-card default or with
// a default that is not mirrored yield (nil, nil).
func (s *CardSyncer) DefaultForCustomer(customer *models.Customer) (*models.Card, error) {
	if !strings.HasPrefix(customer.DefaultSource, "card_") {
		return nil, nil
	}
	card, err := s.cards.GetByStripeID(customer.DefaultSource)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// SetDefaultCard attaches a tokenized card to the customer as their default
// source, then refreshes the customer mirror and the new card row.
func (s *CardSyncer) SetDefaultCard(ctx context.Context, customer *models.Customer, sourceToken string) (*models.Card, error) {
	doc, err := s.api.SetDefaultSource(ctx, customer.StripeID, sourceToken)
	if err != nil {
		return nil, fmt.Errorf("set default source of customer %s: %w", customer.StripeID, err)
	}

	if s.customers != nil {
		if _, err := s.customers.SyncFromRemote(ctx, doc); err != nil {
			return nil, err
		}
	}

	sourceID := RemoteObject(doc).ID("default_source")
	if sourceID == "" {
		return nil, nil
	}
	cardDoc, err := s.api.GetCustomerSource(ctx, customer.StripeID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("retrieve source %s of customer %s: %w", sourceID, customer.StripeID, err)
	}
	return s.SyncFromRemote(ctx, customer, cardDoc)
}

// DeleteCard detaches the card from the customer at Stripe and removes the
// mirror row. A card already gone upstream still clears the mirror.
func (s *CardSyncer) DeleteCard(ctx context.Context, customer *models.Customer, stripeID string) error {
	if err := s.api.DeleteCustomerSource(ctx, customer.StripeID, stripeID); err != nil {
		if !stripeapi.IsNotFound(err) && !stripeapi.IsInvalidRequest(err) {
			return fmt.Errorf("delete source %s of customer %s: %w", stripeID, customer.StripeID, err)
		}
		log.Infof("source %s already gone upstream", stripeID)
	}
	return s.Delete(stripeID)
}

// Delete removes a card mirror row by its Stripe id. Identifiers that are
// not card ids are refused so a source webhook for another payment type can
// never clear a card row.
func (s *CardSyncer) Delete(stripeID string) error {
	if !strings.HasPrefix(stripeID, "card_") {
		return nil
	}
	return s.cards.DeleteByStripeID(stripeID)
}
