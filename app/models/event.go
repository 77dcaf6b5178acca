package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event stores one inbound Stripe webhook delivery. The stripe_id unique
// constraint is the dedup key: a re-delivered event id can never produce a
// second row, the insert fails at the storage layer and the caller treats
// that as "already seen".
//
// Lifecycle: created once in received state, validated against a canonical
// re-fetch from Stripe (valid stays NULL until then), and marked processed
// only after every side effect completed.
type Event struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UUID             string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	StripeID         string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"stripe_id"`
	Kind             string     `gorm:"type:varchar(255);not null;index" json:"kind"`
	Livemode         bool       `gorm:"default:false" json:"livemode"`
	RawMessage       string     `gorm:"type:longtext;not null" json:"raw_message"`
	ValidatedMessage string     `gorm:"type:longtext" json:"validated_message"`
	Valid            *bool      `gorm:"default:null" json:"valid,omitempty"`
	Processed        bool       `gorm:"default:false;index" json:"processed"`
	Request          string     `gorm:"type:longtext" json:"request"`
	PendingWebhooks  int64      `gorm:"default:0" json:"pending_webhooks"`
	APIVersion       string     `gorm:"type:varchar(128);default:''" json:"api_version"`
	CustomerID       *uint      `gorm:"index;default:null" json:"customer_id,omitempty"`
	ProcessingError  string     `gorm:"type:text" json:"processing_error"`
	ProcessedAt      *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	return nil
}

// Message returns the payload handlers should trust: the canonical message
// re-fetched from Stripe when validation has run, the delivered payload
// otherwise.
func (e *Event) Message() string {
	if e.ValidatedMessage != "" {
		return e.ValidatedMessage
	}
	return e.RawMessage
}
