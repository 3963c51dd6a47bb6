package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/payment"
	"github.com/RavenLB/E-commerce/internal/repository"
	"github.com/RavenLB/E-commerce/internal/repository/memory"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*payment.Intent, error) {
	args := m.Called(ctx, amount, currency)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) Checkout(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

type recordingCache struct {
	mu          sync.Mutex
	products    map[int64]entity.Product
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{products: map[int64]entity.Product{}}
}

func (c *recordingCache) Get(_ context.Context, id int64) (*entity.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *recordingCache) Set(_ context.Context, p *entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = *p
}

func (c *recordingCache) Invalidate(_ context.Context, ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.products, id)
	}
	c.invalidated = append(c.invalidated, ids...)
}

// fixture wires every service against one memory store.
type fixture struct {
	store     *memory.Store
	gateway   *MockGateway
	publisher *recordingPublisher
	cache     *recordingCache
	recorder  *countingRecorder

	catalog  *CatalogService
	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		gateway:   &MockGateway{},
		publisher: &recordingPublisher{},
		cache:     newRecordingCache(),
		recorder:  &countingRecorder{},
	}
	f.catalog = NewCatalogService(f.store, f.cache)
	f.cart = NewCartService(f.store)
	f.checkout = NewCheckoutService(f.store, f.gateway, f.publisher, f.cache, f.recorder, CheckoutConfig{
		Currency:       "eur",
		PaymentTimeout: time.Second,
	})
	f.orders = NewOrderService(f.store, f.publisher, f.cache)
	return f
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *entity.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), entity.ProductInput{Name: name, Price: &price, Stock: &stock})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	var stock int
	err := f.store.View(context.Background(), func(uow repository.UnitOfWork) error {
		p, err := uow.Products().FindByID(context.Background(), productID)
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	require.NoError(t, err)
	return stock
}

func (f *fixture) addToCart(t *testing.T, userID, productID int64, quantity int) *entity.CartItem {
	t.Helper()
	item, _, err := f.cart.AddItem(context.Background(), userID, entity.CartItemInput{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
	return item
}

func (f *fixture) allOrders(t *testing.T) []entity.Order {
	t.Helper()
	orders, err := f.orders.ListAllOrders(context.Background(), entity.OrderFilter{})
	require.NoError(t, err)
	return orders
}

func intent(id string, amount int64) *payment.Intent {
	return &payment.Intent{ID: id, ClientSecret: id + "_secret", Amount: amount, Currency: "eur", Status: "requires_payment_method"}
}
