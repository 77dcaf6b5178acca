package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles every repository the sync core needs.
type Repositories struct {
	User         UserRepository
	Customer     CustomerRepository
	Card         CardRepository
	Subscription SubscriptionRepository
	Product      ProductRepository
	Price        PriceRepository
	Coupon       CouponRepository
	Event        EventRepository
}

// NewRepositories creates all repositories on top of one GORM handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Customer:     NewCustomerRepository(db),
		Card:         NewCardRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Product:      NewProductRepository(db),
		Price:        NewPriceRepository(db),
		Coupon:       NewCouponRepository(db),
		Event:        NewEventRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

var (
	defaultFactory     *Factory
	defaultFactoryOnce sync.Once
)

// Default returns the process-wide repositories, built once on the first
// handle it is given. Request handlers go through here instead of
// constructing a fresh set per request.
func Default(db *gorm.DB) *Repositories {
	defaultFactoryOnce.Do(func() {
		defaultFactory = NewFactory(db)
	})
	return defaultFactory.GetRepositories()
}
