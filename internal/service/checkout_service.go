package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/RavenLB/E-commerce/internal/cache"
	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/messaging"
	"github.com/RavenLB/E-commerce/internal/payment"
	"github.com/RavenLB/E-commerce/internal/repository"
)

var errCartChanged = errors.New("cart changed during checkout")

// CheckoutRecorder counts checkout outcomes.
type CheckoutRecorder interface {
	Checkout(outcome string)
}

// CheckoutResult is the committed order and the gateway's payment intent.
type CheckoutResult struct {
	Order   *entity.Order   `json:"order"`
	Payment *payment.Intent `json:"payment"`
}

type CheckoutConfig struct {
	Currency       string
	PaymentTimeout time.Duration
}

// CheckoutService turns a cart into a paid order.
type CheckoutService struct {
	tx        repository.TxManager
	gateway   payment.Gateway
	publisher messaging.Publisher
	cache     cache.ProductCache
	recorder  CheckoutRecorder
	cfg       CheckoutConfig
	now       func() time.Time
}

func NewCheckoutService(
	tx repository.TxManager,
	gateway payment.Gateway,
	publisher messaging.Publisher,
	c cache.ProductCache,
	recorder CheckoutRecorder,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		gateway:   gateway,
		publisher: publisher,
		cache:     c,
		recorder:  recorder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Checkout runs in a single unit of work: it reserves stock for every cart
// line, records the order, requests a payment intent, empties the cart and
// marks the order paid. Any failure, including a gateway error or timeout,
// rolls all of it back.
//
// The order is marked paid as soon as the intent exists; confirmation of the
// actual charge is not awaited.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (*CheckoutResult, error) {
	var (
		order  *entity.Order
		intent *payment.Intent
	)

	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		cartItems, err := uow.Cart().ListByUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return entity.ErrEmptyCart
		}

		lines := make([]line, len(cartItems))
		for i, item := range cartItems {
			lines[i] = line{productID: item.ProductID, quantity: item.Quantity}
		}
		res, err := reserveStock(ctx, uow, lines)
		if err != nil {
			return err
		}

		order = &entity.Order{
			UserID:      userID,
			Status:      entity.StatusPending,
			TotalAmount: res.total.InexactFloat64(),
			Items:       res.items,
		}
		if err := uow.Orders().Create(ctx, order); err != nil {
			return err
		}

		intent, err = s.createIntent(ctx, entity.MinorUnits(res.total))
		if err != nil {
			return entity.PaymentFailed(err)
		}

		cleared, err := uow.Cart().Clear(ctx, userID)
		if err != nil {
			return err
		}
		if cleared != int64(len(cartItems)) {
			return fmt.Errorf("%w: cleared %d cart items, expected %d", errCartChanged, cleared, len(cartItems))
		}
		if err := uow.Orders().MarkPaid(ctx, order.ID, intent.ID); err != nil {
			return err
		}
		order.Status = entity.StatusPaid
		order.PaymentIntentID = intent.ID
		return nil
	})
	s.recorder.Checkout(outcome(err))
	if err != nil {
		if errors.Is(err, entity.ErrPaymentFailed) {
			slog.Error("Checkout payment failed", "user_id", userID, "err", err)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, orderProductIDs(order)...)
	slog.Info("Checkout completed", "order_id", order.ID, "user_id", userID, "total", order.TotalAmount)
	publish(ctx, s.publisher, entity.TopicOrderPlaced, strconv.FormatInt(order.ID, 10), entity.OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		PlacedAt:    s.now().UTC(),
	})

	return &CheckoutResult{Order: order, Payment: intent}, nil
}

func (s *CheckoutService) createIntent(ctx context.Context, amount int64) (*payment.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	return s.gateway.CreatePaymentIntent(ctx, amount, s.cfg.Currency)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, entity.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, entity.ErrProductMissing):
		return "product_missing"
	case errors.Is(err, entity.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, entity.ErrPaymentFailed):
		return "payment_failed"
	default:
		return "error"
	}
}
