// Package payment defines the payment gateway used by checkout.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Intent is a gateway's record of a request to collect payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Gateway creates payment intents. Amounts are in minor currency units.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
}

// FakeGateway accepts every request without contacting anyone. It is meant
// for local runs.
type FakeGateway struct{}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (FakeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}

	id := uuid.NewString()
	return &Intent{
		ID:           "pi_" + id,
		ClientSecret: "pi_" + id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Status:       "requires_payment_method",
	}, nil
}
