package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/RavenLB/E-commerce/internal/cache"
	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/messaging"
	"github.com/RavenLB/E-commerce/internal/repository"
)

var errOrderNotFound = entity.NotFound("Order")

// OrderService orchestrates order-related business logic.
type OrderService struct {
	tx        repository.TxManager
	publisher messaging.Publisher
	cache     cache.ProductCache
	now       func() time.Time
}

func NewOrderService(tx repository.TxManager, publisher messaging.Publisher, c cache.ProductCache) *OrderService {
	return &OrderService{
		tx:        tx,
		publisher: publisher,
		cache:     c,
		now:       time.Now,
	}
}

// PlaceOrder creates a pending order directly from requested lines. Prices
// come from the catalog and stock is taken at once, so a later cancellation
// gives back exactly what was taken. No payment is requested and the cart is
// left alone.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, in entity.CreateOrderInput) (*entity.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slog.Info("Service: Placing order", "user_id", userID, "items", len(in.Items))

	var order *entity.Order
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		lines := make([]line, len(in.Items))
		for i, l := range in.Items {
			lines[i] = line{productID: l.ProductID, quantity: l.Quantity}
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
		return uow.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, orderProductIDs(order)...)
	publish(ctx, s.publisher, entity.TopicOrderPlaced, strconv.FormatInt(order.ID, 10), entity.OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		PlacedAt:    s.now().UTC(),
	})
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, status *entity.OrderStatus) ([]entity.Order, error) {
	return s.list(ctx, entity.OrderFilter{UserID: &userID, Status: status})
}

// ListAllOrders is the admin listing across every user.
func (s *OrderService) ListAllOrders(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	return s.list(ctx, f)
}

func (s *OrderService) list(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	var orders []entity.Order
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		orders, err = uow.Orders().List(ctx, f)
		return err
	})
	return orders, err
}

// GetOrder returns an order owned by the user.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	var order *entity.Order
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		order, err = uow.Orders().FindByIDForUser(ctx, orderID, userID)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errOrderNotFound
	}
	return order, err
}

// CancelOrder cancels a pending order of the user and restores its stock.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	var (
		order  *entity.Order
		change *entity.OrderStatusChanged
	)
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		order, err = uow.Orders().FindByIDForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if order.Status != entity.StatusPending {
			return entity.InvalidTransition("Only pending orders can be cancelled")
		}
		change, err = s.transition(ctx, uow, order, entity.StatusCancelled)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, change)
	return order, nil
}

// UpdateStatus is the admin status change. Setting the current status again
// succeeds without side effects.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*entity.Order, error) {
	next, ok := entity.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		errs := entity.FieldErrors{}
		if status == "" {
			errs.Add("status", "Missing data for required field.")
		} else {
			errs.Add("status", "Must be one of: pending, paid, shipped, delivered, cancelled.")
		}
		return nil, errs.Err()
	}

	var (
		order  *entity.Order
		change *entity.OrderStatusChanged
	)
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		order, err = uow.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransition(next) {
			return entity.InvalidTransition(fmt.Sprintf("Cannot change status from %s to %s", order.Status, next))
		}
		change, err = s.transition(ctx, uow, order, next)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, change)
	return order, nil
}

// transition moves order to next. The status write is a compare-and-set on
// the status read earlier, and stock is restored only after it succeeded, so
// two racing cancellations can restore stock at most once.
func (s *OrderService) transition(ctx context.Context, uow repository.UnitOfWork, order *entity.Order, next entity.OrderStatus) (*entity.OrderStatusChanged, error) {
	from := order.Status
	if err := uow.Orders().UpdateStatus(ctx, order.ID, from, next); err != nil {
		return nil, err
	}

	restored := from.RestoresStock(next)
	if restored {
		if err := restoreStock(ctx, uow, order.Items); err != nil {
			return nil, err
		}
	}

	fresh, err := uow.Orders().FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	*order = *fresh
	return &entity.OrderStatusChanged{
		OrderID:       order.ID,
		From:          from,
		To:            next,
		StockRestored: restored,
		ChangedAt:     s.now().UTC(),
	}, nil
}

func (s *OrderService) afterTransition(ctx context.Context, order *entity.Order, change *entity.OrderStatusChanged) {
	if change == nil {
		return
	}
	if change.StockRestored {
		s.cache.Invalidate(ctx, orderProductIDs(order)...)
	}
	slog.Info("Order status changed", "order_id", order.ID, "from", change.From, "to", change.To)
	publish(ctx, s.publisher, entity.TopicOrderStatusChanged, strconv.FormatInt(order.ID, 10), *change)
}
