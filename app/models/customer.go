package models

import "time"

// Tax exemption states Stripe reports on a customer.
const (
	TaxExemptNone    = "none"
	TaxExemptExempt  = "exempt"
	TaxExemptReverse = "reverse"
)

// Customer mirrors a Stripe customer and links it to a local user account.
// A user has at most one active (non purged) customer row; is_active is
// independent from purged_at so a customer can be deactivated without
// losing the audit trail.
type Customer struct {
	StripeObject
	UserID           *uint      `gorm:"index;default:null" json:"user_id"`
	Email            string     `gorm:"type:varchar(200);default:'';index" json:"email"`
	Name             string     `gorm:"type:varchar(255);default:''" json:"name"`
	Description      string     `gorm:"type:varchar(255);default:''" json:"description"`
	Address          string     `gorm:"type:longtext" json:"address"`
	Balance          float64    `gorm:"type:decimal(9,2);default:0" json:"balance"`
	Currency         string     `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	Delinquent       bool       `gorm:"default:false" json:"delinquent"`
	DefaultSource    string     `gorm:"type:varchar(255);default:''" json:"default_source"`
	Shipping         string     `gorm:"type:longtext" json:"shipping"`
	TaxExempt        string     `gorm:"type:varchar(16);default:'none'" json:"tax_exempt"`
	PreferredLocales string     `gorm:"type:longtext" json:"preferred_locales"`
	InvoicePrefix    string     `gorm:"type:varchar(255);default:''" json:"invoice_prefix"`
	InvoiceSettings  string     `gorm:"type:longtext" json:"invoice_settings"`
	IsActive         bool       `gorm:"default:true;index" json:"is_active"`
	PurgedAt         *time.Time `gorm:"type:timestamp;default:null" json:"purged_at,omitempty"`
}
