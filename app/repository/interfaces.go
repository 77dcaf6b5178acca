package repository

import (
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
)

// CustomerRepository defines the database operations for mirrored customers.
// GetActiveByUserID returns (nil, nil) when the user has no active customer.
type CustomerRepository interface {
	Upsert(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByStripeID(stripeID string) (*models.Customer, error)
	GetActiveByUserID(userID uint) (*models.Customer, error)
	Update(customer *models.Customer) error
	SoftDelete(stripeID string, at time.Time) error
}

// CardRepository defines the database operations for mirrored cards.
// Cards are hard-deleted on removal, never purged.
type CardRepository interface {
	Upsert(card *models.Card) error
	GetByStripeID(stripeID string) (*models.Card, error)
	DeleteByStripeID(stripeID string) error
}

// SubscriptionRepository defines the database operations for mirrored
// subscriptions. FirstByCustomerAndStatuses and LatestByCustomer return
// (nil, nil) when no row matches.
type SubscriptionRepository interface {
	Upsert(sub *models.Subscription) error
	GetByStripeID(stripeID string) (*models.Subscription, error)
	ListByCustomer(customerID uint) ([]models.Subscription, error)
	FirstByCustomerAndStatuses(customerID uint, statuses []string) (*models.Subscription, error)
	LatestByCustomer(customerID uint) (*models.Subscription, error)
	HasUnended(customerID uint, now time.Time) (bool, error)
}

// ProductRepository defines the database operations for mirrored products.
type ProductRepository interface {
	Upsert(product *models.Product) error
	GetByStripeID(stripeID string) (*models.Product, error)
	SoftDelete(stripeID string, at time.Time) error
	PurgeMissing(seenStripeIDs []string, at time.Time) (int64, error)
}

// PriceRepository defines the database operations for mirrored prices.
type PriceRepository interface {
	Upsert(price *models.Price) error
	GetByStripeID(stripeID string) (*models.Price, error)
	SoftDelete(stripeID string, at time.Time) error
	PurgeMissing(seenStripeIDs []string, at time.Time) (int64, error)
}

// CouponRepository defines the database operations for mirrored coupons.
// GetValidByStripeID returns (nil, nil) when no valid coupon matches.
type CouponRepository interface {
	Upsert(coupon *models.Coupon) error
	GetByStripeID(stripeID string) (*models.Coupon, error)
	GetValidByStripeID(stripeID string) (*models.Coupon, error)
	SoftDelete(stripeID string, at time.Time) error
}

// EventRepository defines the database operations for webhook events.
// CreateIfNotExists must be atomic at the storage layer: two racing inserts
// for the same stripe_id yield exactly one row and exactly one created=true.
type EventRepository interface {
	CreateIfNotExists(event *models.Event) (created bool, stored *models.Event, err error)
	GetByStripeID(stripeID string) (*models.Event, error)
	Update(event *models.Event) error
}

// UserRepository defines the user lookups the sync paths need.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}
