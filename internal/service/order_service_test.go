package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RavenLB/E-commerce/internal/entity"
)

func placeOrder(t *testing.T, f *fixture, userID int64, lines ...entity.OrderLineInput) *entity.Order {
	t.Helper()
	o, err := f.orders.PlaceOrder(context.Background(), userID, entity.CreateOrderInput{Items: lines})
	require.NoError(t, err)
	return o
}

func TestPlaceOrderSnapshotsCatalogPrice(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)

	o := placeOrder(t, f, 1, entity.OrderLineInput{ProductID: widget.ID, Quantity: 2})
	assert.Equal(t, entity.StatusPending, o.Status)
	assert.Equal(t, 20.0, o.TotalAmount)
	assert.Equal(t, 3, f.stock(t, widget.ID))

	price := 99.0
	_, err := f.catalog.Update(context.Background(), widget.ID, entity.ProductPatch{Price: &price})
	require.NoError(t, err)

	got, err := f.orders.GetOrder(context.Background(), 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Items[0].Price)
	assert.Equal(t, 20.0, got.TotalAmount)
	assert.Equal(t, []string{entity.TopicOrderPlaced}, f.publisher.topics())
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), 1, entity.CreateOrderInput{})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = f.orders.PlaceOrder(context.Background(), 1, entity.CreateOrderInput{
		Items: []entity.OrderLineInput{{ProductID: 42, Quantity: 1}},
	})
	assert.ErrorIs(t, err, entity.ErrProductMissing)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	o := placeOrder(t, f, 1, entity.OrderLineInput{ProductID: widget.ID, Quantity: 3})

	// Another user cannot see or cancel it.
	_, err := f.orders.CancelOrder(context.Background(), 2, o.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	cancelled, err := f.orders.CancelOrder(context.Background(), 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, widget.ID))
	assert.Equal(t, 5, cancelled.Items[0].Product.Stock)
	assert.Contains(t, f.cache.invalidated, widget.ID)

	_, err = f.orders.CancelOrder(context.Background(), 1, o.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, 5, f.stock(t, widget.ID))

	assert.Equal(t, []string{entity.TopicOrderPlaced, entity.TopicOrderStatusChanged}, f.publisher.topics())
	change := f.publisher.events[1].event.(entity.OrderStatusChanged)
	assert.True(t, change.StockRestored)
	assert.Equal(t, entity.StatusPending, change.From)
}

func TestCancelPaidOrderRefused(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	f.addToCart(t, 1, widget.ID, 3)
	f.gateway.On("CreatePaymentIntent", mock.Anything, int64(3000), "eur").Return(intent("pi_1", 3000), nil)

	res, err := f.checkout.Checkout(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(context.Background(), 1, res.Order.ID)
	require.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, 2, f.stock(t, widget.ID))

	got, err := f.orders.GetOrder(context.Background(), 1, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
}

func TestAdminStatusUpdates(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	o := placeOrder(t, f, 1, entity.OrderLineInput{ProductID: widget.ID, Quantity: 3})
	ctx := context.Background()

	got, err := f.orders.UpdateStatus(ctx, o.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)

	_, err = f.orders.UpdateStatus(ctx, o.ID, "pending")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = f.orders.UpdateStatus(ctx, o.ID, "shipped")
	require.NoError(t, err)

	// Same status again is a quiet no-op.
	events := len(f.publisher.topics())
	got, err = f.orders.UpdateStatus(ctx, o.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, got.Status)
	assert.Len(t, f.publisher.topics(), events)

	got, err = f.orders.UpdateStatus(ctx, o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, got.Status)
	assert.Equal(t, 5, f.stock(t, widget.ID))

	// Repeated cancellation never restores twice.
	_, err = f.orders.UpdateStatus(ctx, o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, widget.ID))

	_, err = f.orders.UpdateStatus(ctx, o.ID, "delivered")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestAdminStatusUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.UpdateStatus(context.Background(), 1, "lost")
	require.ErrorIs(t, err, entity.ErrValidation)

	var e *entity.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "status")

	_, err = f.orders.UpdateStatus(context.Background(), 404, "paid")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestListOrdersScopedAndFiltered(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 50)
	first := placeOrder(t, f, 1, entity.OrderLineInput{ProductID: widget.ID, Quantity: 1})
	second := placeOrder(t, f, 1, entity.OrderLineInput{ProductID: widget.ID, Quantity: 1})
	placeOrder(t, f, 2, entity.OrderLineInput{ProductID: widget.ID, Quantity: 1})

	_, err := f.orders.CancelOrder(context.Background(), 1, first.ID)
	require.NoError(t, err)

	mine, err := f.orders.ListOrders(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)

	pending := entity.StatusPending
	mine, err = f.orders.ListOrders(context.Background(), 1, &pending)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.ID, mine[0].ID)

	all, err := f.orders.ListAllOrders(context.Background(), entity.OrderFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.orders.GetOrder(context.Background(), 2, first.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
