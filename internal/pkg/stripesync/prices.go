package stripesync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// PriceSyncer mirrors the price catalog. Every price hangs off a mirrored
// product, which is fetched on demand when a price arrives first.
type PriceSyncer struct {
	api      stripeapi.Client
	prices   repository.PriceRepository
	products *ProductSyncer
}

func NewPriceSyncer(api stripeapi.Client, prices repository.PriceRepository, products *ProductSyncer) *PriceSyncer {
	return &PriceSyncer{api: api, prices: prices, products: products}
}

// Sync upserts the mirror row for a price document.
func (s *PriceSyncer) Sync(ctx context.Context, doc RemoteObject) (*models.Price, error) {
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("price document without id")
	}
	productID := doc.ID("product")
	if productID == "" {
		return nil, fmt.Errorf("price %s without product", stripeID)
	}

	product, err := s.products.Ensure(ctx, productID)
	if err != nil {
		return nil, err
	}

	price := &models.Price{ProductID: product.ID}
	price.StripeID = stripeID
	price.Livemode = doc.Bool("livemode")
	price.Metadata = doc.JSON("metadata")
	price.Active = doc.Bool("active")
	price.Currency = doc.Str("currency")
	price.Nickname = doc.Str("nickname")
	price.Recurring = doc.JSON("recurring")
	price.Type = doc.Str("type")
	price.CustomUnitAmount = doc.JSON("custom_unit_amount")
	price.UnitAmount = doc.IntPtr("unit_amount")
	price.UnitAmountDecimal = decimalString(doc, "unit_amount_decimal")
	price.BillingScheme = doc.Str("billing_scheme")
	price.TaxBehavior = doc.Str("tax_behavior")
	price.Tiers = doc.JSON("tiers")
	price.TiersMode = doc.Str("tiers_mode")
	price.TransformQuantity = doc.JSON("transform_quantity")
	price.LookupKey = doc.Str("lookup_key")
	price.Created = doc.Int("created")

	if err := s.prices.Upsert(price); err != nil {
		return nil, fmt.Errorf("upsert price %s: %w", stripeID, err)
	}
	return price, nil
}

// SyncAll mirrors the full price listing, then purges rows absent from it.
// As with products, the purge is gated on a complete listing pass.
func (s *PriceSyncer) SyncAll(ctx context.Context) error {
	var seen []string
	err := s.api.ForEachPrice(ctx, func(doc map[string]interface{}) error {
		price, err := s.Sync(ctx, doc)
		if err != nil {
			return err
		}
		seen = append(seen, price.StripeID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list prices: %w", err)
	}

	purged, err := s.prices.PurgeMissing(seen, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("purge prices: %w", err)
	}
	if purged > 0 {
		log.Infof("purged %d prices absent from listing", purged)
	}
	return nil
}

// SoftDelete purges one price mirror row. Identifiers that are not price
// ids are refused.
func (s *PriceSyncer) SoftDelete(stripeID string) error {
	if !strings.HasPrefix(stripeID, "price_") {
		return nil
	}
	return s.prices.SoftDelete(stripeID, time.Now().UTC())
}

// decimalString parses Stripe's decimal-string amounts, which arrive as
// strings to avoid float truncation on the wire.
func decimalString(doc RemoteObject, key string) *float64 {
	raw, ok := doc[key].(string)
	if !ok || raw == "" {
		return doc.FloatPtr(key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
