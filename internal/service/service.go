package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/messaging"
	"github.com/RavenLB/E-commerce/internal/repository"
)

const publishTimeout = 5 * time.Second

// publish sends an event after the unit of work committed. A broker outage
// must not undo a committed order, so failures are only logged.
func publish(ctx context.Context, publisher messaging.Publisher, topic, key string, event any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "key", key, "err", err)
	}
}

// line is one requested product quantity.
type line struct {
	productID int64
	quantity  int
}

// reservation is the outcome of reserveStock.
type reservation struct {
	items []entity.OrderItem
	total decimal.Decimal
}

// reserveStock locks every referenced product, checks that each line fits the
// remaining stock and decrements it. Lines for the same product are checked
// together. Products are locked in id order so concurrent reservations cannot
// deadlock. The returned items carry the unit price at this moment.
func reserveStock(ctx context.Context, uow repository.UnitOfWork, lines []line) (reservation, error) {
	wanted := make(map[int64]int, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, seen := wanted[l.productID]; !seen {
			ids = append(ids, l.productID)
		}
		wanted[l.productID] += l.quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*entity.Product, len(ids))
	for _, id := range ids {
		p, err := uow.Products().FindByIDForUpdate(ctx, id)
		if errors.Is(err, entity.ErrNotFound) {
			return reservation{}, entity.ProductMissing(id)
		}
		if err != nil {
			return reservation{}, err
		}
		if p.Stock < wanted[id] {
			return reservation{}, entity.InsufficientStock(p, wanted[id])
		}
		products[id] = p
	}

	for _, id := range ids {
		if err := uow.Products().AdjustStock(ctx, id, -wanted[id]); err != nil {
			if errors.Is(err, entity.ErrInsufficientStock) {
				return reservation{}, entity.InsufficientStock(products[id], wanted[id])
			}
			return reservation{}, err
		}
		products[id].Stock -= wanted[id]
	}

	res := reservation{items: make([]entity.OrderItem, len(lines)), total: decimal.Zero}
	for i, l := range lines {
		p := products[l.productID]
		res.items[i] = entity.OrderItem{
			ProductID: l.productID,
			Quantity:  l.quantity,
			Price:     p.Price,
			Product:   p,
		}
		res.total = res.total.Add(entity.LineTotal(p.Price, l.quantity))
	}
	return res, nil
}

// restoreStock gives the quantities of an order back to the catalog. Products
// that no longer exist are skipped.
func restoreStock(ctx context.Context, uow repository.UnitOfWork, items []entity.OrderItem) error {
	for _, item := range items {
		err := uow.Products().AdjustStock(ctx, item.ProductID, item.Quantity)
		if errors.Is(err, entity.ErrNotFound) {
			slog.Warn("Product gone, stock not restored", "product_id", item.ProductID)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func orderProductIDs(o *entity.Order) []int64 {
	ids := make([]int64, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}
	return ids
}
