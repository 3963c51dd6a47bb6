package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/RavenLB/E-commerce/internal/entity"
)

const orderColumns = "id, user_id, status, total_amount, payment_intent_id, created_at"

type orderRepository struct {
	q querier
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	err := r.q.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, status, total_amount, payment_intent_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		o.UserID, o.Status, o.TotalAmount, o.PaymentIntentID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", translate(err))
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := r.q.QueryRowContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id",
			item.OrderID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", translate(err))
		}
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	return r.findOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

func (r *orderRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*entity.Order, error) {
	return r.findOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2", id, userID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Order, error) {
	var o entity.Order
	err := r.q.QueryRowContext(ctx, query, args...).
		Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentIntentID, &o.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}

	orders := []entity.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) List(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentIntentID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fetches the items of all orders in one query.
func (r *orderRepository) loadItems(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []entity.OrderItem{}
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
			p.id, p.name, p.description, p.price, p.stock, p.image_url, p.category, p.created_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item entity.OrderItem
			p    entity.Product
		)
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.Category, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Product = &p
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order item rows: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3",
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return r.expectTransition(ctx, res, id)
}

func (r *orderRepository) MarkPaid(ctx context.Context, id int64, paymentIntentID string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_intent_id = $2 WHERE id = $3 AND status = $4",
		entity.StatusPaid, paymentIntentID, id, entity.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return r.expectTransition(ctx, res, id)
}

// expectTransition tells a missing order apart from one whose status moved.
func (r *orderRepository) expectTransition(ctx context.Context, res interface{ RowsAffected() (int64, error) }, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return entity.ErrNotFound
	}
	return entity.Conflict("Order status changed concurrently")
}
