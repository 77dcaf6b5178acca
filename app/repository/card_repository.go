package repository

import (
	"github.com/mirrorstack/stripemirror/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a card repository backed by GORM.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Upsert(card *models.Card) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id",
			"livemode",
			"metadata",
			"name",
			"address_line_1",
			"address_line_1_check",
			"address_line_2",
			"address_city",
			"address_state",
			"address_country",
			"address_zip",
			"address_zip_check",
			"brand",
			"country",
			"cvc_check",
			"dynamic_last4",
			"tokenization_method",
			"exp_month",
			"exp_year",
			"funding",
			"last4",
			"fingerprint",
			"updated_at",
		}),
	}).Create(card).Error; err != nil {
		return err
	}

	return r.db.Where("stripe_id = ?", card.StripeID).First(card).Error
}

func (r *cardRepository) GetByStripeID(stripeID string) (*models.Card, error) {
	var c models.Card
	if err := r.db.Where("stripe_id = ?", stripeID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) DeleteByStripeID(stripeID string) error {
	return r.db.Where("stripe_id = ?", stripeID).Delete(&models.Card{}).Error
}
