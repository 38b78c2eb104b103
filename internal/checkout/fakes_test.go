package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"campusmerch/models"
)

type memState struct {
	cart          map[int64]models.CartLineItem
	statuses      []models.OrderStatus
	orders        []models.Order
	payments      []models.Payment
	receipts      []models.Receipt
	notifications []models.ShopNotification
}

func (s memState) clone() memState {
	c := memState{
		cart:          make(map[int64]models.CartLineItem, len(s.cart)),
		statuses:      append([]models.OrderStatus(nil), s.statuses...),
		orders:        append([]models.Order(nil), s.orders...),
		payments:      append([]models.Payment(nil), s.payments...),
		receipts:      append([]models.Receipt(nil), s.receipts...),
		notifications: append([]models.ShopNotification(nil), s.notifications...),
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	return c
}

// memRepo is an in-memory Repository. Transactions are serialized and
// rolled back by restoring a snapshot.
type memRepo struct {
	mu            sync.Mutex
	state         memState
	nextID        int64
	members       map[int64]bool
	membershipErr error
	failStep      string
	findCalls     int32
}

func newMemRepo(items ...models.CartLineItem) *memRepo {
	r := &memRepo{
		state:   memState{cart: map[int64]models.CartLineItem{}},
		members: map[int64]bool{},
	}
	for _, it := range items {
		r.state.cart[it.ID] = it
	}
	return r
}

func (r *memRepo) snapshot() memState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

func (r *memRepo) Transact(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.state.clone()
	if err := fn(&memTx{r: r}); err != nil {
		r.state = saved
		return err
	}
	return nil
}

func (r *memRepo) FindCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (*models.CartLineItem, error) {
	atomic.AddInt32(&r.findCalls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&memTx{r: r}).FindCartItem(ctx, userID, cartItemID)
}

func (r *memRepo) HasMembership(ctx context.Context, userID uuid.UUID, shopID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&memTx{r: r}).HasMembership(ctx, userID, shopID)
}

func (r *memRepo) CreateOrderStatus(ctx context.Context, s *models.OrderStatus) error {
	return errors.New("writes must run in a transaction")
}

func (r *memRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return errors.New("writes must run in a transaction")
}

func (r *memRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return errors.New("writes must run in a transaction")
}

func (r *memRepo) CreateReceipt(ctx context.Context, rec *models.Receipt) error {
	return errors.New("writes must run in a transaction")
}

func (r *memRepo) DeleteCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (bool, error) {
	return false, errors.New("writes must run in a transaction")
}

func (r *memRepo) CreateShopNotification(ctx context.Context, n *models.ShopNotification) error {
	return errors.New("writes must run in a transaction")
}

// memTx operates on memRepo state while its lock is held.
type memTx struct {
	r *memRepo
}

var errInjected = errors.New("injected failure")

func (t *memTx) fail(step string) error {
	if t.r.failStep == step {
		return errInjected
	}
	return nil
}

func (t *memTx) id() int64 {
	t.r.nextID++
	return t.r.nextID
}

func (t *memTx) Transact(ctx context.Context, fn func(repo Repository) error) error {
	return fn(t)
}

func (t *memTx) FindCartItem(_ context.Context, userID uuid.UUID, cartItemID int64) (*models.CartLineItem, error) {
	it, ok := t.r.state.cart[cartItemID]
	if !ok || it.UserID != userID {
		return nil, ErrCartItemNotFound
	}
	return &it, nil
}

func (t *memTx) HasMembership(_ context.Context, _ uuid.UUID, shopID int64) (bool, error) {
	if t.r.membershipErr != nil {
		return false, t.r.membershipErr
	}
	return t.r.members[shopID], nil
}

func (t *memTx) CreateOrderStatus(_ context.Context, s *models.OrderStatus) error {
	if err := t.fail("status"); err != nil {
		return err
	}
	s.ID = t.id()
	t.r.state.statuses = append(t.r.state.statuses, *s)
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, o *models.Order) error {
	if err := t.fail("order"); err != nil {
		return err
	}
	o.ID = t.id()
	t.r.state.orders = append(t.r.state.orders, *o)
	return nil
}

func (t *memTx) CreatePayment(_ context.Context, p *models.Payment) error {
	if err := t.fail("payment"); err != nil {
		return err
	}
	p.ID = t.id()
	t.r.state.payments = append(t.r.state.payments, *p)
	return nil
}

func (t *memTx) CreateReceipt(_ context.Context, rec *models.Receipt) error {
	if err := t.fail("receipt"); err != nil {
		return err
	}
	rec.ID = t.id()
	t.r.state.receipts = append(t.r.state.receipts, *rec)
	return nil
}

func (t *memTx) DeleteCartItem(_ context.Context, userID uuid.UUID, cartItemID int64) (bool, error) {
	if err := t.fail("cart"); err != nil {
		return false, err
	}
	it, ok := t.r.state.cart[cartItemID]
	if !ok || it.UserID != userID {
		return false, nil
	}
	delete(t.r.state.cart, cartItemID)
	return true, nil
}

func (t *memTx) CreateShopNotification(_ context.Context, n *models.ShopNotification) error {
	if err := t.fail("notification"); err != nil {
		return err
	}
	n.ID = t.id()
	t.r.state.notifications = append(t.r.state.notifications, *n)
	return nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int32
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.text, f.err
}

type fakeObjects struct {
	mu        sync.Mutex
	uploadErr error
	uploaded  map[string]string
	deleted   []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploaded: map[string]string{}}
}

func (f *fakeObjects) Upload(_ context.Context, key, contentType string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded[key] = contentType
	return "https://storage.test/payment-picture/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploaded, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	queue  string
	events []models.OrderEvent
}

func (f *fakePublisher) Publish(_ context.Context, queue string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = queue
	f.events = append(f.events, v.(models.OrderEvent))
	return nil
}
