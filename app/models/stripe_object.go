package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StripeObject carries the columns shared by every mirrored Stripe entity:
// a public UUID, the immutable stripe_id foreign key into Stripe's id space,
// the livemode flag and the free-form metadata snapshot.
type StripeObject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	StripeID  string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"stripe_id"`
	Livemode  bool      `gorm:"default:false" json:"livemode"`
	Metadata  string    `gorm:"type:longtext" json:"metadata"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *StripeObject) BeforeCreate(_ *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}
