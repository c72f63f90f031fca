package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/notification"
	"github.com/samim9090/noirman-ecommerce/payment"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memDB is an in-memory stand-in for Postgres shared by the fake repositories.
type memDB struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*models.Product
	coupons   map[string]*models.Coupon
	orders    []*models.Order
	users     map[string]*models.User
	insertErr error
}

func newMemDB() *memDB {
	return &memDB{
		products: map[uuid.UUID]*models.Product{},
		coupons:  map[string]*models.Coupon{},
		users:    map[string]*models.User{},
	}
}

func (db *memDB) addProduct(p models.Product) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	db.products[p.ID] = &p
	return p.ID
}

func (db *memDB) stock(id uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id].Stock
}

type memProducts struct{ db *memDB }

func (m memProducts) FindAll(_ context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Product
	for _, p := range m.db.products {
		if filter.Category == "" || p.Category == filter.Category {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (m memProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Product
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if p, ok := m.db.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m memProducts) Create(_ context.Context, p *models.Product) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	m.db.products[p.ID] = &cp
	return nil
}

func (m memProducts) Update(_ context.Context, p *models.Product) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *p
	m.db.products[p.ID] = &cp
	return nil
}

func (m memProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.products, id)
	return nil
}

func (m memProducts) UpdateRatings(_ context.Context, id uuid.UUID, ratings float64, numReviews int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Ratings = ratings
	p.NumReviews = numReviews
	return nil
}

func (m memProducts) Count(context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.db.products)), nil
}

type memCoupons struct{ db *memDB }

func (m memCoupons) Create(_ context.Context, c *models.Coupon) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, exists := m.db.coupons[c.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	c.ID = uuid.New()
	m.db.coupons[c.Code] = c
	return nil
}

func (m memCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCoupons) FindByID(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.coupons {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memCoupons) FindAll(context.Context) ([]models.Coupon, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Coupon
	for _, c := range m.db.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (m memCoupons) Update(_ context.Context, c *models.Coupon) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *c
	m.db.coupons[c.Code] = &cp
	return nil
}

func (m memCoupons) Delete(_ context.Context, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for code, c := range m.db.coupons {
		if c.ID == id {
			delete(m.db.coupons, code)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memOrders struct{ db *memDB }

// PlaceOrder mirrors the transactional repository: either every deduction,
// the coupon claim and the insert apply, or none do.
func (m memOrders) PlaceOrder(_ context.Context, order *models.Order, deductions []repository.StockDeduction, couponCode string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	for _, d := range deductions {
		p, ok := m.db.products[d.ProductID]
		if !ok || p.Stock < d.Qty {
			return apperrors.ErrInsufficientStock.WithMessage("Insufficient stock for %s", d.Name)
		}
	}
	var coupon *models.Coupon
	if couponCode != "" {
		c, ok := m.db.coupons[strings.ToUpper(couponCode)]
		if !ok || !c.IsActive || !time.Now().Before(c.ExpiresAt) || (c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit) {
			return apperrors.ErrCouponUsageExhausted
		}
		coupon = c
	}
	if m.db.insertErr != nil {
		return m.db.insertErr
	}
	for _, o := range m.db.orders {
		if order.IdempotencyKey != nil && o.IdempotencyKey != nil && o.UserID == order.UserID && *o.IdempotencyKey == *order.IdempotencyKey {
			return gorm.ErrDuplicatedKey
		}
	}

	for _, d := range deductions {
		m.db.products[d.ProductID].Stock -= d.Qty
	}
	if coupon != nil {
		coupon.UsedCount++
	}
	order.CreatedAt = time.Now()
	cp := *order
	cp.OrderItems = append([]models.OrderItem(nil), order.OrderItems...)
	m.db.orders = append(m.db.orders, &cp)
	return nil
}

func (m memOrders) find(match func(*models.Order) bool) *models.Order {
	for _, o := range m.db.orders {
		if match(o) {
			cp := *o
			return &cp
		}
	}
	return nil
}

func (m memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if o := m.find(func(o *models.Order) bool { return o.ID == id }); o != nil {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memOrders) FindByUserID(_ context.Context, userID string) ([]models.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Order
	for _, o := range m.db.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memOrders) FindAll(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Order
	for _, o := range m.db.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m memOrders) FindByIdempotencyKey(_ context.Context, userID, key string) (*models.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if o := m.find(func(o *models.Order) bool {
		return o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key
	}); o != nil {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memOrders) ExistsByPaymentIntentID(_ context.Context, intentID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.find(func(o *models.Order) bool {
		return o.PaymentIntentID != nil && *o.PaymentIntentID == intentID
	}) != nil, nil
}

func (m memOrders) UpdateStatus(_ context.Context, order *models.Order) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.orders {
		if o.ID == order.ID {
			o.OrderStatus = order.OrderStatus
			o.PaymentStatus = order.PaymentStatus
			o.DeliveredAt = order.DeliveredAt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m memOrders) TransitionPaymentByIntent(_ context.Context, intentID, from, to string) ([]models.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var changed []models.Order
	for _, o := range m.db.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID && o.PaymentStatus == from {
			o.PaymentStatus = to
			changed = append(changed, *o)
		}
	}
	return changed, nil
}

func (m memOrders) Count(context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.db.orders)), nil
}

func (m memOrders) SumPaidRevenue(context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var total int64
	for _, o := range m.db.orders {
		if o.PaymentStatus == models.PaymentStatusPaid {
			total += o.TotalPrice
		}
	}
	return total, nil
}

type memUsers struct{ db *memDB }

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// FindAll mirrors the repository: case-insensitive name/email match, newest first.
func (m memUsers) FindAll(_ context.Context, search string, page, limit int) ([]models.User, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	needle := strings.ToLower(search)
	var matched []models.User
	for _, u := range m.db.users {
		if needle == "" || strings.Contains(strings.ToLower(u.Name), needle) || strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m memUsers) SetBlocked(_ context.Context, id string, blocked bool) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (m memUsers) Count(context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.db.users)), nil
}

type memCarts struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: map[string]models.Cart{}}
}

func (m *memCarts) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	c.Items = append([]models.CartItem(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cart
	c.Items = append([]models.CartItem{}, cart.Items...)
	m.carts[cart.UserID] = c
	return nil
}

func (m *memCarts) ClearCart(ctx context.Context, userID string) error {
	return m.SaveCart(ctx, &models.Cart{UserID: userID, Items: []models.CartItem{}})
}

type fakeIdempotency struct {
	mu       sync.Mutex
	held     map[string]bool
	acquireF func(userID, key string) (bool, error)
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{held: map[string]bool{}}
}

func (f *fakeIdempotency) Acquire(_ context.Context, userID, key string) (bool, error) {
	if f.acquireF != nil {
		return f.acquireF(userID, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := userID + ":" + key
	if f.held[k] {
		return false, nil
	}
	f.held[k] = true
	return true, nil
}

func (f *fakeIdempotency) Release(_ context.Context, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, userID+":"+key)
	return nil
}

type fakeGateway struct {
	createFn   func(ctx context.Context, amount float64, metadata map[string]string) (*payment.Intent, error)
	retrieveFn func(ctx context.Context, intentID string) (*payment.Intent, error)
}

func (f *fakeGateway) CreateIntent(ctx context.Context, amount float64, metadata map[string]string) (*payment.Intent, error) {
	return f.createFn(ctx, amount, metadata)
}

func (f *fakeGateway) RetrieveIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	return f.retrieveFn(ctx, intentID)
}

func succeededGateway(minor int64) *fakeGateway {
	return &fakeGateway{retrieveFn: func(_ context.Context, id string) (*payment.Intent, error) {
		return &payment.Intent{ID: id, Status: payment.StatusSucceeded, Amount: minor}, nil
	}}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.OrderConfirmation
	err  error
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, c models.OrderConfirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return f.err
}

var _ notification.Dispatcher = (*fakeNotifier)(nil)

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (f *fakePublisher) Publish(_ context.Context, topic string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = map[string][][]byte{}
	}
	f.messages[topic] = append(f.messages[topic], message)
	return nil
}

// storefront bundles the services under test with their in-memory backing.
type storefront struct {
	db        *memDB
	carts     *memCarts
	idem      *fakeIdempotency
	notifier  *fakeNotifier
	publisher *fakePublisher
	orders    *orderServiceImpl
	cart      CartService
	coupons   CouponService
}

func newStorefront(gateway payment.Gateway) *storefront {
	db := newMemDB()
	carts := newMemCarts()
	idem := newFakeIdempotency()
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	logger := zap.NewNop()

	orders := NewOrderService(OrderDeps{
		Orders:      memOrders{db},
		Products:    memProducts{db},
		Coupons:     memCoupons{db},
		Carts:       carts,
		Users:       memUsers{db},
		Idempotency: idem,
		Gateway:     gateway,
		Notifier:    notifier,
		Publisher:   publisher,
		Topic:       "order-events",
		Shipping:    ShippingPolicy{FreeThreshold: 999, Fee: 149},
		Logger:      logger,
	}).(*orderServiceImpl)

	return &storefront{
		db:        db,
		carts:     carts,
		idem:      idem,
		notifier:  notifier,
		publisher: publisher,
		orders:    orders,
		cart:      NewCartService(carts, memProducts{db}, logger),
		coupons:   NewCouponService(memCoupons{db}, logger),
	}
}

var testShipping = models.ShippingAddress{
	FullName:     "Arjun Mehta",
	Phone:        "9876543210",
	AddressLine1: "12 MG Road",
	City:         "Bengaluru",
	State:        "Karnataka",
	Pincode:      "560001",
}
