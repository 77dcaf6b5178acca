package stripesync

import (
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/cache"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// SyncSet bundles every syncer with the webhook pipeline wired across them.
type SyncSet struct {
	Customers     *CustomerSyncer
	Cards         *CardSyncer
	Subscriptions *SubscriptionSyncer
	Products      *ProductSyncer
	Prices        *PriceSyncer
	Coupons       *CouponSyncer
	Dispatcher    *Dispatcher
	Ingestor      *Ingestor
}

// NewSyncSet wires the syncers together. The customer syncer drives the
// card and subscription mirrors during a cascade, and the card flows reach
// back into the customer mirror, so both links are set here after
// construction.
func NewSyncSet(api stripeapi.Client, repos *repository.Repositories, notifier Notifier, hasCredentials bool) *SyncSet {
	customers := NewCustomerSyncer(api, repos.Customer, repos.User)
	cards := NewCardSyncer(api, repos.Card)
	subscriptions := NewSubscriptionSyncer(api, repos.Subscription, repos.Coupon)
	products := NewProductSyncer(api, repos.Product)
	prices := NewPriceSyncer(api, repos.Price, products)
	coupons := NewCouponSyncer(api, repos.Coupon)

	customers.cards = cards
	customers.subscriptions = subscriptions
	cards.customers = customers

	validator := NewValidator(api, repos.Event)
	dispatcher := NewDispatcher(repos.Event, validator, notifier, customers, cards, subscriptions, products, prices, coupons)
	ingestor := NewIngestor(repos.Event, dispatcher, hasCredentials)

	return &SyncSet{
		Customers:     customers,
		Cards:         cards,
		Subscriptions: subscriptions,
		Products:      products,
		Prices:        prices,
		Coupons:       coupons,
		Dispatcher:    dispatcher,
		Ingestor:      ingestor,
	}
}

// NewSyncSetFromDB builds a SyncSet with the environment's Stripe
// credentials and the shared Redis client as notifier.
func NewSyncSetFromDB(db *gorm.DB) *SyncSet {
	repos := repository.Default(db)
	api := stripeapi.NewClientFromEnv()
	notifier := NewRedisNotifier(cache.GetClient())
	return NewSyncSet(api, repos, notifier, stripeapi.HasAPIKey())
}
