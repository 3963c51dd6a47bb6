package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeGateway(t *testing.T) {
	g := NewFakeGateway()

	intent, err := g.CreatePaymentIntent(context.Background(), 6027, "eur")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "pi_"))
	assert.Equal(t, intent.ID+"_secret", intent.ClientSecret)
	assert.Equal(t, int64(6027), intent.Amount)
	assert.Equal(t, "eur", intent.Currency)

	other, err := g.CreatePaymentIntent(context.Background(), 100, "eur")
	require.NoError(t, err)
	assert.NotEqual(t, intent.ID, other.ID)
}

func TestFakeGatewayRejects(t *testing.T) {
	g := NewFakeGateway()

	_, err := g.CreatePaymentIntent(context.Background(), 0, "eur")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.CreatePaymentIntent(ctx, 100, "eur")
	assert.ErrorIs(t, err, context.Canceled)
}
