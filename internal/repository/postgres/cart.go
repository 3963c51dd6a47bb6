package postgres

import (
	"context"
	"fmt"

	"github.com/RavenLB/E-commerce/internal/entity"
)

const cartSelect = `
	SELECT c.id, c.user_id, c.product_id, c.quantity,
		p.id, p.name, p.description, p.price, p.stock, p.image_url, p.category, p.created_at
	FROM cart_items c
	JOIN products p ON p.id = c.product_id`

type cartRepository struct {
	q querier
}

func scanCartItem(row rowScanner) (*entity.CartItem, error) {
	var (
		item entity.CartItem
		p    entity.Product
	)
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.Category, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Product = &p
	return &item, nil
}

func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	return r.list(ctx, cartSelect+" WHERE c.user_id = $1 ORDER BY c.id", userID)
}

// ListByUserForUpdate locks only the cart rows; the products are locked
// separately when stock is reserved.
func (r *cartRepository) ListByUserForUpdate(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	return r.list(ctx, cartSelect+" WHERE c.user_id = $1 ORDER BY c.id FOR UPDATE OF c", userID)
}

func (r *cartRepository) list(ctx context.Context, query string, userID int64) ([]entity.CartItem, error) {
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []entity.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}
	return items, nil
}

func (r *cartRepository) FindByID(ctx context.Context, userID, itemID int64) (*entity.CartItem, error) {
	item, err := scanCartItem(r.q.QueryRowContext(ctx, cartSelect+" WHERE c.id = $1 AND c.user_id = $2", itemID, userID))
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *cartRepository) FindByProduct(ctx context.Context, userID, productID int64) (*entity.CartItem, error) {
	item, err := scanCartItem(r.q.QueryRowContext(ctx, cartSelect+" WHERE c.user_id = $1 AND c.product_id = $2", userID, productID))
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *cartRepository) Create(ctx context.Context, item *entity.CartItem) error {
	err := r.q.QueryRowContext(ctx,
		"INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id",
		item.UserID, item.ProductID, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", translate(err))
	}
	return nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3",
		quantity, itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return expectOne(res)
}

func (r *cartRepository) Delete(ctx context.Context, userID, itemID int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return expectOne(res)
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
