package stripesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// ProductSyncer mirrors the product catalog.
type ProductSyncer struct {
	api      stripeapi.Client
	products repository.ProductRepository
}

func NewProductSyncer(api stripeapi.Client, products repository.ProductRepository) *ProductSyncer {
	return &ProductSyncer{api: api, products: products}
}

// Sync upserts the mirror row for a product document.
func (s *ProductSyncer) Sync(ctx context.Context, doc RemoteObject) (*models.Product, error) {
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("product document without id")
	}

	product := &models.Product{}
	product.StripeID = stripeID
	product.Livemode = doc.Bool("livemode")
	product.Metadata = doc.JSON("metadata")
	product.Active = doc.Bool("active")
	product.Name = doc.Str("name")
	product.Description = doc.Str("description")
	product.StatementDescriptor = doc.Str("statement_descriptor")
	product.TaxCode = doc.ID("tax_code")
	product.UnitLabel = doc.Str("unit_label")
	product.Images = doc.JSON("images")
	product.PackageDimensions = doc.JSON("package_dimensions")
	product.URL = doc.Str("url")
	product.Created = doc.Int("created")
	product.Updated = doc.Int("updated")
	if v, ok := doc["shippable"].(bool); ok {
		product.Shippable = &v
	}

	if err := s.products.Upsert(product); err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", stripeID, err)
	}
	return product, nil
}

// Ensure returns the mirrored product for a Stripe id, fetching and
// mirroring it on demand.
func (s *ProductSyncer) Ensure(ctx context.Context, stripeID string) (*models.Product, error) {
	product, err := s.products.GetByStripeID(stripeID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	doc, err := s.api.GetProduct(ctx, stripeID)
	if err != nil {
		return nil, fmt.Errorf("retrieve product %s: %w", stripeID, err)
	}
	return s.Sync(ctx, doc)
}

// SyncAll mirrors the full product listing, then purges rows absent from
// it. The purge only runs when the listing pass covered every page, so a
// pagination failure can never mass-purge the catalog.
func (s *ProductSyncer) SyncAll(ctx context.Context) error {
	var seen []string
	err := s.api.ForEachProduct(ctx, func(doc map[string]interface{}) error {
		product, err := s.Sync(ctx, doc)
		if err != nil {
			return err
		}
		seen = append(seen, product.StripeID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	purged, err := s.products.PurgeMissing(seen, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("purge products: %w", err)
	}
	if purged > 0 {
		log.Infof("purged %d products absent from listing", purged)
	}
	return nil
}

// SoftDelete purges one product mirror row. Identifiers that are not
// product ids are refused.
func (s *ProductSyncer) SoftDelete(stripeID string) error {
	if !strings.HasPrefix(stripeID, "prod_") {
		return nil
	}
	return s.products.SoftDelete(stripeID, time.Now().UTC())
}
