package models

import "time"

// Coupon durations as reported by Stripe.
const (
	CouponDurationOnce      = "once"
	CouponDurationRepeating = "repeating"
	CouponDurationForever   = "forever"
)

// Coupon mirrors a Stripe coupon. amount_off is stored in major units after
// currency-aware conversion.
type Coupon struct {
	StripeObject
	Name             string     `gorm:"type:varchar(64);default:''" json:"name"`
	AppliesTo        string     `gorm:"type:longtext" json:"applies_to"`
	AmountOff        *float64   `gorm:"type:decimal(9,2);default:null" json:"amount_off,omitempty"`
	Currency         string     `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	Duration         string     `gorm:"type:varchar(16);default:'once'" json:"duration"`
	DurationInMonths *int64     `gorm:"default:null" json:"duration_in_months,omitempty"`
	MaxRedemptions   *int64     `gorm:"default:null" json:"max_redemptions,omitempty"`
	PercentOff       *float64   `gorm:"type:decimal(5,2);default:null" json:"percent_off,omitempty"`
	RedeemBy         *time.Time `gorm:"type:timestamp;default:null" json:"redeem_by,omitempty"`
	TimesRedeemed    int64      `gorm:"default:0" json:"times_redeemed"`
	Valid            bool       `gorm:"default:false;index" json:"valid"`
	PurgedAt         *time.Time `gorm:"type:timestamp;default:null" json:"purged_at,omitempty"`
}
