package repository

import (
	"github.com/mirrorstack/stripemirror/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an event repository backed by GORM.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// CreateIfNotExists inserts the event unless a row with the same stripe_id
// already exists. The unique constraint makes the check-then-act race safe:
// a losing concurrent insert affects zero rows and is reported as a
// duplicate, never as an error.
func (r *eventRepository) CreateIfNotExists(event *models.Event) (bool, *models.Event, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Event
	if err := r.db.Where("stripe_id = ?", event.StripeID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *eventRepository) GetByStripeID(stripeID string) (*models.Event, error) {
	var e models.Event
	if err := r.db.Where("stripe_id = ?", stripeID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Update(event *models.Event) error {
	return r.db.Save(event).Error
}
