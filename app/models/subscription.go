package models

import "time"

// Subscription statuses as reported by Stripe.
// https://stripe.com/docs/api/subscriptions/object#subscription_object-status
const (
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
)

// SubscriptionStatusCurrent holds the statuses under which a subscription
// counts as current; SubscriptionStatusCancelled the ones under which it
// counts as cancelled. Membership is always derived from status, never
// stored as its own flag.
var (
	SubscriptionStatusCurrent   = []string{SubscriptionStatusTrialing, SubscriptionStatusActive}
	SubscriptionStatusCancelled = []string{SubscriptionStatusCanceled, SubscriptionStatusUnpaid}
)

// Collection methods for subscription invoices.
const (
	CollectionMethodChargeAutomatically = "charge_automatically"
	CollectionMethodSendInvoice         = "send_invoice"
)

// Subscription mirrors a Stripe subscription. It belongs to exactly one
// Customer but outlives customer deactivation for audit purposes.
type Subscription struct {
	StripeObject
	CustomerID                    uint       `gorm:"not null;index" json:"customer_id"`
	Items                         string     `gorm:"type:longtext" json:"items"`
	ApplicationFeePercent         *float64   `gorm:"type:decimal(5,2);default:null" json:"application_fee_percent,omitempty"`
	AutomaticTax                  string     `gorm:"type:longtext" json:"automatic_tax"`
	BillingCycleAnchor            *time.Time `gorm:"type:timestamp;default:null" json:"billing_cycle_anchor,omitempty"`
	BillingThresholds             string     `gorm:"type:longtext" json:"billing_thresholds"`
	CancelAt                      *time.Time `gorm:"type:timestamp;default:null" json:"cancel_at,omitempty"`
	CancelAtPeriodEnd             bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt                    *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	CancellationDetails           string     `gorm:"type:longtext" json:"cancellation_details"`
	CollectionMethod              string     `gorm:"type:varchar(32);default:''" json:"collection_method"`
	CurrentPeriodStart            *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd              *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	DaysUntilDue                  *int64     `gorm:"default:null" json:"days_until_due,omitempty"`
	DefaultPaymentMethod          string     `gorm:"type:varchar(255);default:''" json:"default_payment_method"`
	DefaultSource                 string     `gorm:"type:varchar(255);default:''" json:"default_source"`
	DefaultTaxRates               string     `gorm:"type:longtext" json:"default_tax_rates"`
	Discount                      string     `gorm:"type:longtext" json:"discount"`
	EndedAt                       *time.Time `gorm:"type:timestamp;default:null" json:"ended_at,omitempty"`
	NextPendingInvoiceItemInvoice *time.Time `gorm:"type:timestamp;default:null" json:"next_pending_invoice_item_invoice,omitempty"`
	PauseCollection               string     `gorm:"type:longtext" json:"pause_collection"`
	PendingInvoiceItemInterval    string     `gorm:"type:longtext" json:"pending_invoice_item_interval"`
	PendingSetupIntent            string     `gorm:"type:varchar(255);default:''" json:"pending_setup_intent"`
	PendingUpdate                 string     `gorm:"type:longtext" json:"pending_update"`
	Quantity                      *int64     `gorm:"default:null" json:"quantity,omitempty"`
	StartDate                     *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	Status                        string     `gorm:"type:varchar(32);not null;index" json:"status"`
	TrialStart                    *time.Time `gorm:"type:timestamp;default:null" json:"trial_start,omitempty"`
	TrialEnd                      *time.Time `gorm:"type:timestamp;default:null" json:"trial_end,omitempty"`
	LatestInvoice                 string     `gorm:"type:varchar(255);default:''" json:"latest_invoice"`
	PurgedAt                      *time.Time `gorm:"type:timestamp;default:null" json:"purged_at,omitempty"`
}

// IsCurrent reports whether the subscription status belongs to the current
// set (trialing or active).
func (s *Subscription) IsCurrent() bool {
	for _, status := range SubscriptionStatusCurrent {
		if s.Status == status {
			return true
		}
	}
	return false
}

// IsCancelled reports whether the subscription status belongs to the
// cancelled set (canceled or unpaid).
func (s *Subscription) IsCancelled() bool {
	for _, status := range SubscriptionStatusCancelled {
		if s.Status == status {
			return true
		}
	}
	return false
}
