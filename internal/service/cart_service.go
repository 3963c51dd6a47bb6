package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/repository"
)

var errCartItemNotFound = entity.NotFound("Cart item")

// CartService manages a user's cart. Every operation is scoped by the user
// id; items of other users behave as if they did not exist.
type CartService struct {
	tx repository.TxManager
}

func NewCartService(tx repository.TxManager) *CartService {
	return &CartService{tx: tx}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) (entity.Cart, error) {
	var items []entity.CartItem
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		items, err = uow.Cart().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return entity.Cart{}, err
	}
	return entity.NewCart(items), nil
}

// AddItem adds quantity of a product to the cart. An existing row for the
// product is increased instead of duplicated; created reports which happened.
func (s *CartService) AddItem(ctx context.Context, userID int64, in entity.CartItemInput) (item *entity.CartItem, created bool, err error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}

	err = s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		p, err := uow.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, entity.ErrNotFound) {
			return errProductNotFound
		}
		if err != nil {
			return err
		}

		existing, err := uow.Cart().FindByProduct(ctx, userID, in.ProductID)
		switch {
		case err == nil:
			total := existing.Quantity + in.Quantity
			if total > p.Stock {
				return entity.InsufficientStock(p, total)
			}
			if err := uow.Cart().UpdateQuantity(ctx, userID, existing.ID, total); err != nil {
				return err
			}
			existing.Quantity = total
			existing.Product = p
			item = existing
			return nil
		case errors.Is(err, entity.ErrNotFound):
			if in.Quantity > p.Stock {
				return entity.InsufficientStock(p, in.Quantity)
			}
			item = &entity.CartItem{UserID: userID, ProductID: p.ID, Quantity: in.Quantity}
			if err := uow.Cart().Create(ctx, item); err != nil {
				return err
			}
			item.Product = p
			created = true
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}

	slog.Info("Cart item added", "user_id", userID, "product_id", in.ProductID, "quantity", item.Quantity)
	return item, created, nil
}

// UpdateItem sets the quantity of a cart item, re-checking current stock.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*entity.CartItem, error) {
	if err := entity.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	var item *entity.CartItem
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		item, err = uow.Cart().FindByID(ctx, userID, itemID)
		if errors.Is(err, entity.ErrNotFound) {
			return errCartItemNotFound
		}
		if err != nil {
			return err
		}

		p, err := uow.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, entity.ErrNotFound) {
			return errProductNotFound
		}
		if err != nil {
			return err
		}
		if quantity > p.Stock {
			return entity.InsufficientStock(p, quantity)
		}

		if err := uow.Cart().UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		item.Product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		return uow.Cart().Delete(ctx, userID, itemID)
	})
	if errors.Is(err, entity.ErrNotFound) {
		return errCartItemNotFound
	}
	return err
}
