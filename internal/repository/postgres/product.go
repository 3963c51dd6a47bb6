package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/RavenLB/E-commerce/internal/entity"
)

const productColumns = "id, name, description, price, stock, image_url, category, created_at"

var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

type productRepository struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.Category, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg(f.Search)
		// strpos matches the term literally, so % and _ carry no pattern meaning.
		where = append(where, fmt.Sprintf("(strpos(lower(name), lower(%s)) > 0 OR strpos(lower(description), lower(%s)) > 0)", p, p))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := productSortColumns[f.SortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", column, direction)
	if column != "id" {
		query += ", id " + direction
	}

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(f.Limit), arg(f.Offset()))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.findOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.findOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*entity.Product, error) {
	return r.findOne(ctx, "SELECT "+productColumns+" FROM products WHERE name = $1", name)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	err := r.q.QueryRowContext(ctx,
		"INSERT INTO products (name, description, price, stock, image_url, category) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.Category,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", translate(err))
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE products SET name = $1, description = $2, price = $3, stock = $4, image_url = $5, category = $6 WHERE id = $7",
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.Category, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", translate(err))
	}
	return expectOne(res)
}

func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2 AND stock + $1 >= 0",
		delta, id,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == checkViolation {
			return entity.ErrInsufficientStock
		}
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		// Either the product is gone or the decrement would underflow.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return entity.ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var referenced bool
	err := r.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1) OR EXISTS (SELECT 1 FROM cart_items WHERE product_id = $1)",
		id,
	).Scan(&referenced)
	if err != nil {
		return false, fmt.Errorf("failed to check product references: %w", err)
	}
	return referenced, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", translate(err))
	}
	return expectOne(res)
}

func expectOne(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
