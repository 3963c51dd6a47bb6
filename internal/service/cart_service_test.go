package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RavenLB/E-commerce/internal/entity"
)

func TestAddItemMergesExistingRow(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 2.5, 10)
	ctx := context.Background()

	first, created, err := f.cart.AddItem(ctx, 1, entity.CartItemInput{ProductID: widget.ID, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.cart.AddItem(ctx, 1, entity.CartItemInput{ProductID: widget.ID, Quantity: 3})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	cart, err := f.cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, 12.5, cart.TotalAmount)
	assert.Equal(t, "Widget", cart.Items[0].Product.Name)
}

func TestAddItemChecksCombinedQuantity(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	f.addToCart(t, 1, widget.ID, 3)

	_, _, err := f.cart.AddItem(context.Background(), 1, entity.CartItemInput{ProductID: widget.ID, Quantity: 3})
	require.ErrorIs(t, err, entity.ErrInsufficientStock)

	var e *entity.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Not enough stock for Widget (available: 5, requested: 6)", e.Message)

	_, _, err = f.cart.AddItem(context.Background(), 2, entity.CartItemInput{ProductID: widget.ID, Quantity: 10})
	assert.ErrorIs(t, err, entity.ErrInsufficientStock)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.cart.AddItem(context.Background(), 1, entity.CartItemInput{ProductID: 7, Quantity: 1})
	require.ErrorIs(t, err, entity.ErrNotFound)
	assert.EqualError(t, err, "Product not found")

	_, _, err = f.cart.AddItem(context.Background(), 1, entity.CartItemInput{ProductID: 7, Quantity: 0})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	item := f.addToCart(t, 1, widget.ID, 1)
	ctx := context.Background()

	updated, err := f.cart.UpdateItem(ctx, 1, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.cart.UpdateItem(ctx, 1, item.ID, 6)
	assert.ErrorIs(t, err, entity.ErrInsufficientStock)

	_, err = f.cart.UpdateItem(ctx, 1, item.ID, 0)
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = f.cart.UpdateItem(ctx, 2, item.ID, 1)
	require.ErrorIs(t, err, entity.ErrNotFound)
	assert.EqualError(t, err, "Cart item not found")

	cart, err := f.cart.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalItems)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", 10.0, 5)
	item := f.addToCart(t, 1, widget.ID, 1)
	ctx := context.Background()

	// Another user's item looks missing.
	assert.ErrorIs(t, f.cart.RemoveItem(ctx, 2, item.ID), entity.ErrNotFound)

	require.NoError(t, f.cart.RemoveItem(ctx, 1, item.ID))
	assert.ErrorIs(t, f.cart.RemoveItem(ctx, 1, item.ID), entity.ErrNotFound)

	cart, err := f.cart.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}
