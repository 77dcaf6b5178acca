package repository

import (
	"errors"
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a customer repository backed by GORM.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Upsert(customer *models.Customer) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		// user_id is deliberately absent: the user link is set once via
		// Update and must survive webhook-driven upserts.
		DoUpdates: clause.AssignmentColumns([]string{
			"livemode",
			"metadata",
			"email",
			"name",
			"description",
			"address",
			"balance",
			"currency",
			"delinquent",
			"default_source",
			"shipping",
			"tax_exempt",
			"preferred_locales",
			"invoice_prefix",
			"invoice_settings",
			"is_active",
			"purged_at",
			"updated_at",
		}),
	}).Create(customer).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("stripe_id = ?", customer.StripeID).First(customer).Error
}

func (r *customerRepository) GetByID(id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) GetByStripeID(stripeID string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.Where("stripe_id = ?", stripeID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) GetActiveByUserID(userID uint) (*models.Customer, error) {
	var c models.Customer
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

func (r *customerRepository) SoftDelete(stripeID string, at time.Time) error {
	return r.db.Model(&models.Customer{}).
		Where("stripe_id = ?", stripeID).
		Updates(map[string]interface{}{
			"is_active": false,
			"purged_at": &at,
		}).Error
}
