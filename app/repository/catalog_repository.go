package repository

import (
	"errors"
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository backed by GORM.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Upsert(product *models.Product) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"livemode",
			"metadata",
			"active",
			"name",
			"description",
			"statement_descriptor",
			"tax_code",
			"unit_label",
			"images",
			"shippable",
			"package_dimensions",
			"url",
			"created",
			"updated",
			"purged_at",
			"updated_at",
		}),
	}).Create(product).Error; err != nil {
		return err
	}

	return r.db.Where("stripe_id = ?", product.StripeID).First(product).Error
}

func (r *productRepository) GetByStripeID(stripeID string) (*models.Product, error) {
	var p models.Product
	if err := r.db.Where("stripe_id = ?", stripeID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) SoftDelete(stripeID string, at time.Time) error {
	return r.db.Model(&models.Product{}).
		Where("stripe_id = ?", stripeID).
		Update("purged_at", &at).Error
}

func (r *productRepository) PurgeMissing(seenStripeIDs []string, at time.Time) (int64, error) {
	tx := r.db.Model(&models.Product{}).Where("purged_at IS NULL")
	if len(seenStripeIDs) > 0 {
		tx = tx.Where("stripe_id NOT IN ?", seenStripeIDs)
	}
	tx = tx.Update("purged_at", &at)
	return tx.RowsAffected, tx.Error
}

type priceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a price repository backed by GORM.
func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) Upsert(price *models.Price) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_id",
			"livemode",
			"metadata",
			"active",
			"currency",
			"nickname",
			"recurring",
			"type",
			"custom_unit_amount",
			"unit_amount",
			"unit_amount_decimal",
			"billing_scheme",
			"tax_behavior",
			"tiers",
			"tiers_mode",
			"transform_quantity",
			"lookup_key",
			"created",
			"purged_at",
			"updated_at",
		}),
	}).Create(price).Error; err != nil {
		return err
	}

	return r.db.Where("stripe_id = ?", price.StripeID).First(price).Error
}

func (r *priceRepository) GetByStripeID(stripeID string) (*models.Price, error) {
	var p models.Price
	if err := r.db.Where("stripe_id = ?", stripeID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *priceRepository) SoftDelete(stripeID string, at time.Time) error {
	return r.db.Model(&models.Price{}).
		Where("stripe_id = ?", stripeID).
		Update("purged_at", &at).Error
}

func (r *priceRepository) PurgeMissing(seenStripeIDs []string, at time.Time) (int64, error) {
	tx := r.db.Model(&models.Price{}).Where("purged_at IS NULL")
	if len(seenStripeIDs) > 0 {
		tx = tx.Where("stripe_id NOT IN ?", seenStripeIDs)
	}
	tx = tx.Update("purged_at", &at)
	return tx.RowsAffected, tx.Error
}

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a coupon repository backed by GORM.
func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Upsert(coupon *models.Coupon) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"livemode",
			"metadata",
			"name",
			"applies_to",
			"amount_off",
			"currency",
			"duration",
			"duration_in_months",
			"max_redemptions",
			"percent_off",
			"redeem_by",
			"times_redeemed",
			"valid",
			"purged_at",
			"updated_at",
		}),
	}).Create(coupon).Error; err != nil {
		return err
	}

	return r.db.Where("stripe_id = ?", coupon.StripeID).First(coupon).Error
}

func (r *couponRepository) GetByStripeID(stripeID string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db.Where("stripe_id = ?", stripeID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) GetValidByStripeID(stripeID string) (*models.Coupon, error) {
	var c models.Coupon
	err := r.db.Where("stripe_id = ? AND valid = ?", stripeID, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) SoftDelete(stripeID string, at time.Time) error {
	return r.db.Model(&models.Coupon{}).
		Where("stripe_id = ?", stripeID).
		Update("purged_at", &at).Error
}
