package models

import "time"

// Price types and billing schemes as reported by Stripe.
const (
	PriceTypeOneTime   = "one_time"
	PriceTypeRecurring = "recurring"

	BillingSchemePerUnit = "per_unit"
	BillingSchemeTiered  = "tiered"
)

// Price mirrors a Stripe price and references its owning Product locally.
type Price struct {
	StripeObject
	ProductID         uint       `gorm:"not null;index" json:"product_id"`
	Active            bool       `gorm:"default:false;index" json:"active"`
	Currency          string     `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	Nickname          string     `gorm:"type:varchar(255);default:''" json:"nickname"`
	Recurring         string     `gorm:"type:longtext" json:"recurring"`
	Type              string     `gorm:"type:varchar(16);default:''" json:"type"`
	CustomUnitAmount  string     `gorm:"type:longtext" json:"custom_unit_amount"`
	UnitAmount        *int64     `gorm:"default:null" json:"unit_amount,omitempty"`
	UnitAmountDecimal *float64   `gorm:"type:decimal(19,12);default:null" json:"unit_amount_decimal,omitempty"`
	BillingScheme     string     `gorm:"type:varchar(16);default:''" json:"billing_scheme"`
	TaxBehavior       string     `gorm:"type:varchar(16);default:''" json:"tax_behavior"`
	Tiers             string     `gorm:"type:longtext" json:"tiers"`
	TiersMode         string     `gorm:"type:varchar(32);default:''" json:"tiers_mode"`
	TransformQuantity string     `gorm:"type:longtext" json:"transform_quantity"`
	LookupKey         string     `gorm:"type:varchar(255);default:''" json:"lookup_key"`
	Created           int64      `gorm:"default:0" json:"created"`
	PurgedAt          *time.Time `gorm:"type:timestamp;default:null" json:"purged_at,omitempty"`
}
