package repository

import (
	"errors"
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository backed by GORM.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id",
			"livemode",
			"metadata",
			"items",
			"application_fee_percent",
			"automatic_tax",
			"billing_cycle_anchor",
			"billing_thresholds",
			"cancel_at",
			"cancel_at_period_end",
			"canceled_at",
			"cancellation_details",
			"collection_method",
			"current_period_start",
			"current_period_end",
			"days_until_due",
			"default_payment_method",
			"default_source",
			"default_tax_rates",
			"discount",
			"ended_at",
			"next_pending_invoice_item_invoice",
			"pause_collection",
			"pending_invoice_item_interval",
			"pending_setup_intent",
			"pending_update",
			"quantity",
			"start_date",
			"status",
			"trial_start",
			"trial_end",
			"latest_invoice",
			"purged_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("stripe_id = ?", sub.StripeID).First(sub).Error
}

func (r *subscriptionRepository) GetByStripeID(stripeID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Where("stripe_id = ?", stripeID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) ListByCustomer(customerID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("customer_id = ?", customerID).Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) FirstByCustomerAndStatuses(customerID uint, statuses []string) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Where("customer_id = ? AND status IN ?", customerID, statuses).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) LatestByCustomer(customerID uint) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) HasUnended(customerID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("customer_id = ?", customerID).
		Where("ended_at IS NULL OR ended_at > ?", now).
		Count(&count).Error
	return count > 0, err
}
