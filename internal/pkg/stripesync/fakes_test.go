package stripesync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
)

// seqLog records fake calls from the client and every repository in one
// ordered sequence, so tests can assert happens-before across them.
type seqLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *seqLog) append(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *seqLog) indexOf(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c == call {
			return i
		}
	}
	return -1
}

// fakeClient serves canned documents and records every mutation so tests
// can assert call order and side-effect counts.
type fakeClient struct {
	mu  sync.Mutex
	seq *seqLog

	events    map[string]map[string]interface{}
	customers map[string]map[string]interface{}
	sources   map[string]map[string]interface{}
	products  map[string]map[string]interface{}

	productList []map[string]interface{}
	priceList   []map[string]interface{}
	couponList  []map[string]interface{}
	subsByCust  map[string][]map[string]interface{}

	// listFailAfter fails every ForEach listing after emitting that many
	// elements. Zero means listings succeed.
	listFailAfter int

	calls []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		events:     map[string]map[string]interface{}{},
		customers:  map[string]map[string]interface{}{},
		sources:    map[string]map[string]interface{}{},
		products:   map[string]map[string]interface{}{},
		subsByCust: map[string][]map[string]interface{}{},
	}
}

func (f *fakeClient) record(call string) {
	f.seq.append(call)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func notFoundErr(id string) error {
	return &stripe.Error{
		Type:           stripe.ErrorTypeInvalidRequest,
		Code:           stripe.ErrorCodeResourceMissing,
		HTTPStatusCode: 404,
		Msg:            fmt.Sprintf("No such object: %s", id),
	}
}

func (f *fakeClient) GetEvent(ctx context.Context, id string) (map[string]interface{}, error) {
	f.record("GetEvent:" + id)
	doc, ok := f.events[id]
	if !ok {
		return nil, notFoundErr(id)
	}
	return doc, nil
}

func (f *fakeClient) GetCustomer(ctx context.Context, id string) (map[string]interface{}, error) {
	f.record("GetCustomer:" + id)
	doc, ok := f.customers[id]
	if !ok {
		return nil, notFoundErr(id)
	}
	return doc, nil
}

func (f *fakeClient) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (map[string]interface{}, error) {
	id := fmt.Sprintf("cus_new%d", len(f.customers)+1)
	f.record("CreateCustomer:" + id)
	doc := map[string]interface{}{"id": id, "object": "customer", "email": email}
	f.customers[id] = doc
	return doc, nil
}

func (f *fakeClient) SetDefaultSource(ctx context.Context, customerID, sourceToken string) (map[string]interface{}, error) {
	f.record("SetDefaultSource:" + customerID + ":" + sourceToken)
	doc, ok := f.customers[customerID]
	if !ok {
		return nil, notFoundErr(customerID)
	}
	return doc, nil
}

func (f *fakeClient) GetCustomerSource(ctx context.Context, customerID, sourceID string) (map[string]interface{}, error) {
	f.record("GetCustomerSource:" + sourceID)
	doc, ok := f.sources[sourceID]
	if !ok {
		return nil, notFoundErr(sourceID)
	}
	return doc, nil
}

func (f *fakeClient) DeleteCustomerSource(ctx context.Context, customerID, sourceID string) error {
	f.record("DeleteCustomerSource:" + sourceID)
	if _, ok := f.sources[sourceID]; !ok {
		return notFoundErr(sourceID)
	}
	delete(f.sources, sourceID)
	return nil
}

func (f *fakeClient) forEach(list []map[string]interface{}, fn func(map[string]interface{}) error) error {
	for i, doc := range list {
		if f.listFailAfter > 0 && i >= f.listFailAfter {
			return fmt.Errorf("listing aborted after %d elements", i)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) ForEachSubscription(ctx context.Context, customerID string, fn func(map[string]interface{}) error) error {
	f.record("ForEachSubscription:" + customerID)
	return f.forEach(f.subsByCust[customerID], fn)
}

func (f *fakeClient) CreateSubscription(ctx context.Context, customerID string, priceIDs []string, couponID string, trialFromPlan bool) (map[string]interface{}, error) {
	id := fmt.Sprintf("sub_new%d", len(f.subsByCust[customerID])+1)
	f.record("CreateSubscription:" + customerID + ":" + id + ":coupon=" + couponID)
	doc := map[string]interface{}{"id": id, "object": "subscription", "customer": customerID, "status": "active"}
	f.subsByCust[customerID] = append(f.subsByCust[customerID], doc)
	return doc, nil
}

func (f *fakeClient) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string, prorate bool) (map[string]interface{}, error) {
	f.record("UpdateSubscriptionPrice:" + subscriptionID)
	return map[string]interface{}{"id": subscriptionID, "object": "subscription", "status": "active"}, nil
}

func (f *fakeClient) CancelSubscription(ctx context.Context, subscriptionID string, immediately bool) (map[string]interface{}, error) {
	f.record(fmt.Sprintf("CancelSubscription:%s:immediate=%t", subscriptionID, immediately))
	status := "active"
	doc := map[string]interface{}{"id": subscriptionID, "object": "subscription", "status": status}
	if immediately {
		doc["status"] = "canceled"
		doc["ended_at"] = float64(time.Now().Unix())
	} else {
		doc["cancel_at_period_end"] = true
	}
	return doc, nil
}

func (f *fakeClient) GetProduct(ctx context.Context, id string) (map[string]interface{}, error) {
	f.record("GetProduct:" + id)
	doc, ok := f.products[id]
	if !ok {
		return nil, notFoundErr(id)
	}
	return doc, nil
}

func (f *fakeClient) ForEachProduct(ctx context.Context, fn func(map[string]interface{}) error) error {
	f.record("ForEachProduct")
	return f.forEach(f.productList, fn)
}

func (f *fakeClient) ForEachPrice(ctx context.Context, fn func(map[string]interface{}) error) error {
	f.record("ForEachPrice")
	return f.forEach(f.priceList, fn)
}

func (f *fakeClient) ForEachCoupon(ctx context.Context, fn func(map[string]interface{}) error) error {
	f.record("ForEachCoupon")
	return f.forEach(f.couponList, fn)
}

// In-memory repositories mirroring the GORM semantics the syncers rely on.

type memStore struct {
	mu     sync.Mutex
	nextID uint
	seq    *seqLog
	calls  []string
}

func (m *memStore) record(call string) {
	m.seq.append(call)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *memStore) id() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}

type fakeCustomerRepo struct {
	memStore
	rows map[string]*models.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{rows: map[string]*models.Customer{}}
}

func (r *fakeCustomerRepo) Upsert(customer *models.Customer) error {
	r.record("customer.Upsert:" + customer.StripeID)
	if existing, ok := r.rows[customer.StripeID]; ok {
		customer.ID = existing.ID
		if customer.UserID == nil {
			customer.UserID = existing.UserID
		}
	} else {
		customer.ID = r.id()
	}
	stored := *customer
	r.rows[customer.StripeID] = &stored
	return nil
}

func (r *fakeCustomerRepo) GetByID(id uint) (*models.Customer, error) {
	for _, c := range r.rows {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCustomerRepo) GetByStripeID(stripeID string) (*models.Customer, error) {
	c, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) GetActiveByUserID(userID uint) (*models.Customer, error) {
	for _, c := range r.rows {
		if c.UserID != nil && *c.UserID == userID && c.IsActive {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) Update(customer *models.Customer) error {
	r.record("customer.Update:" + customer.StripeID)
	stored := *customer
	r.rows[customer.StripeID] = &stored
	return nil
}

func (r *fakeCustomerRepo) SoftDelete(stripeID string, at time.Time) error {
	r.record("customer.SoftDelete:" + stripeID)
	if c, ok := r.rows[stripeID]; ok {
		c.IsActive = false
		c.PurgedAt = &at
	}
	return nil
}

type fakeCardRepo struct {
	memStore
	rows map[string]*models.Card
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{rows: map[string]*models.Card{}}
}

func (r *fakeCardRepo) Upsert(card *models.Card) error {
	r.record("card.Upsert:" + card.StripeID)
	if existing, ok := r.rows[card.StripeID]; ok {
		card.ID = existing.ID
	} else {
		card.ID = r.id()
	}
	stored := *card
	r.rows[card.StripeID] = &stored
	return nil
}

func (r *fakeCardRepo) GetByStripeID(stripeID string) (*models.Card, error) {
	c, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCardRepo) DeleteByStripeID(stripeID string) error {
	r.record("card.Delete:" + stripeID)
	delete(r.rows, stripeID)
	return nil
}

type fakeSubscriptionRepo struct {
	memStore
	rows map[string]*models.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{rows: map[string]*models.Subscription{}}
}

func (r *fakeSubscriptionRepo) Upsert(sub *models.Subscription) error {
	r.record("subscription.Upsert:" + sub.StripeID)
	if existing, ok := r.rows[sub.StripeID]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = r.id()
	}
	stored := *sub
	r.rows[sub.StripeID] = &stored
	return nil
}

func (r *fakeSubscriptionRepo) GetByStripeID(stripeID string) (*models.Subscription, error) {
	s, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubscriptionRepo) ListByCustomer(customerID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	for _, s := range r.rows {
		if s.CustomerID == customerID {
			subs = append(subs, *s)
		}
	}
	return subs, nil
}

func (r *fakeSubscriptionRepo) FirstByCustomerAndStatuses(customerID uint, statuses []string) (*models.Subscription, error) {
	for _, s := range r.rows {
		if s.CustomerID != customerID {
			continue
		}
		for _, status := range statuses {
			if s.Status == status {
				copied := *s
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) LatestByCustomer(customerID uint) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range r.rows {
		if s.CustomerID == customerID && (latest == nil || s.ID > latest.ID) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeSubscriptionRepo) HasUnended(customerID uint, now time.Time) (bool, error) {
	for _, s := range r.rows {
		if s.CustomerID == customerID && (s.EndedAt == nil || s.EndedAt.After(now)) {
			return true, nil
		}
	}
	return false, nil
}

type fakeProductRepo struct {
	memStore
	rows map[string]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{rows: map[string]*models.Product{}}
}

func (r *fakeProductRepo) Upsert(product *models.Product) error {
	r.record("product.Upsert:" + product.StripeID)
	if existing, ok := r.rows[product.StripeID]; ok {
		product.ID = existing.ID
	} else {
		product.ID = r.id()
	}
	stored := *product
	r.rows[product.StripeID] = &stored
	return nil
}

func (r *fakeProductRepo) GetByStripeID(stripeID string) (*models.Product, error) {
	p, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) SoftDelete(stripeID string, at time.Time) error {
	r.record("product.SoftDelete:" + stripeID)
	if p, ok := r.rows[stripeID]; ok {
		p.PurgedAt = &at
	}
	return nil
}

func (r *fakeProductRepo) PurgeMissing(seen []string, at time.Time) (int64, error) {
	r.record("product.PurgeMissing")
	seenSet := map[string]struct{}{}
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}
	var purged int64
	for id, p := range r.rows {
		if _, ok := seenSet[id]; !ok && p.PurgedAt == nil {
			p.PurgedAt = &at
			purged++
		}
	}
	return purged, nil
}

type fakePriceRepo struct {
	memStore
	rows map[string]*models.Price
}

func newFakePriceRepo() *fakePriceRepo {
	return &fakePriceRepo{rows: map[string]*models.Price{}}
}

func (r *fakePriceRepo) Upsert(price *models.Price) error {
	r.record("price.Upsert:" + price.StripeID)
	if existing, ok := r.rows[price.StripeID]; ok {
		price.ID = existing.ID
	} else {
		price.ID = r.id()
	}
	stored := *price
	r.rows[price.StripeID] = &stored
	return nil
}

func (r *fakePriceRepo) GetByStripeID(stripeID string) (*models.Price, error) {
	p, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePriceRepo) SoftDelete(stripeID string, at time.Time) error {
	r.record("price.SoftDelete:" + stripeID)
	if p, ok := r.rows[stripeID]; ok {
		p.PurgedAt = &at
	}
	return nil
}

func (r *fakePriceRepo) PurgeMissing(seen []string, at time.Time) (int64, error) {
	r.record("price.PurgeMissing")
	seenSet := map[string]struct{}{}
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}
	var purged int64
	for id, p := range r.rows {
		if _, ok := seenSet[id]; !ok && p.PurgedAt == nil {
			p.PurgedAt = &at
			purged++
		}
	}
	return purged, nil
}

type fakeCouponRepo struct {
	memStore
	rows map[string]*models.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{rows: map[string]*models.Coupon{}}
}

func (r *fakeCouponRepo) Upsert(coupon *models.Coupon) error {
	r.record("coupon.Upsert:" + coupon.StripeID)
	if existing, ok := r.rows[coupon.StripeID]; ok {
		coupon.ID = existing.ID
	} else {
		coupon.ID = r.id()
	}
	stored := *coupon
	r.rows[coupon.StripeID] = &stored
	return nil
}

func (r *fakeCouponRepo) GetByStripeID(stripeID string) (*models.Coupon, error) {
	c, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCouponRepo) GetValidByStripeID(stripeID string) (*models.Coupon, error) {
	c, ok := r.rows[stripeID]
	if !ok || !c.Valid {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCouponRepo) SoftDelete(stripeID string, at time.Time) error {
	r.record("coupon.SoftDelete:" + stripeID)
	if c, ok := r.rows[stripeID]; ok {
		c.PurgedAt = &at
	}
	return nil
}

type fakeEventRepo struct {
	memStore
	rows map[string]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{rows: map[string]*models.Event{}}
}

func (r *fakeEventRepo) CreateIfNotExists(event *models.Event) (bool, *models.Event, error) {
	if existing, ok := r.rows[event.StripeID]; ok {
		copied := *existing
		return false, &copied, nil
	}
	event.ID = r.id()
	stored := *event
	r.rows[event.StripeID] = &stored
	copied := stored
	return true, &copied, nil
}

func (r *fakeEventRepo) GetByStripeID(stripeID string) (*models.Event, error) {
	e, ok := r.rows[stripeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Update(event *models.Event) error {
	stored := *event
	r.rows[event.StripeID] = &stored
	return nil
}

type fakeUserRepo struct {
	rows map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{rows: map[uint]*models.User{}}
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.rows {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(offset, limit int) ([]models.User, error) {
	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var users []models.User
	for _, id := range ids {
		users = append(users, *r.rows[id])
	}
	if offset >= len(users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], nil
}

func (r *fakeUserRepo) Count() (int64, error) {
	return int64(len(r.rows)), nil
}

type testEnv struct {
	seq       *seqLog
	api       *fakeClient
	customers *fakeCustomerRepo
	cards     *fakeCardRepo
	subs      *fakeSubscriptionRepo
	products  *fakeProductRepo
	prices    *fakePriceRepo
	coupons   *fakeCouponRepo
	events    *fakeEventRepo
	users     *fakeUserRepo
	notifier  *recordingNotifier
	set       *SyncSet
}

type recordingNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (n *recordingNotifier) Notify(ctx context.Context, event *models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, event.Kind)
	return nil
}

func newTestEnv() *testEnv {
	env := &testEnv{
		seq:       &seqLog{},
		api:       newFakeClient(),
		customers: newFakeCustomerRepo(),
		cards:     newFakeCardRepo(),
		subs:      newFakeSubscriptionRepo(),
		products:  newFakeProductRepo(),
		prices:    newFakePriceRepo(),
		coupons:   newFakeCouponRepo(),
		events:    newFakeEventRepo(),
		users:     newFakeUserRepo(),
		notifier:  &recordingNotifier{},
	}
	env.api.seq = env.seq
	env.customers.seq = env.seq
	env.cards.seq = env.seq
	env.subs.seq = env.seq
	env.products.seq = env.seq
	env.prices.seq = env.seq
	env.coupons.seq = env.seq
	env.events.seq = env.seq
	repos := &repository.Repositories{
		User:         env.users,
		Customer:     env.customers,
		Card:         env.cards,
		Subscription: env.subs,
		Product:      env.products,
		Price:        env.prices,
		Coupon:       env.coupons,
		Event:        env.events,
	}
	env.set = NewSyncSet(env.api, repos, env.notifier, true)
	return env
}
