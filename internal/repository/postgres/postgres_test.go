package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/repository"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "price", "stock", "image_url", "category", "created_at"})
}

func TestStoreCommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs("Laptop", "", 999.99, 10, "", "electronics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, created))
	mock.ExpectCommit()

	p := &entity.Product{Name: "Laptop", Price: 999.99, Stock: 10, Category: "electronics"}
	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Products().Create(context.Background(), p)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})
	mock.ExpectRollback()

	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Users().Create(context.Background(), &entity.User{Username: "alice", Email: "a@x.io"})
	})

	assert.ErrorIs(t, err, entity.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductListBuildsFilters(t *testing.T) {
	store, mock := newMockStore(t)
	minPrice := 10.0

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+productColumns+" FROM products WHERE (strpos(lower(name), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0) AND category = $2 AND price >= $3 ORDER BY price DESC, id DESC LIMIT $4 OFFSET $5",
	)).
		WithArgs("lap", "electronics", 10.0, 20, 20).
		WillReturnRows(productRows().AddRow(3, "Laptop", "fast", 999.99, 5, "", "electronics", created))
	mock.ExpectCommit()

	var got []entity.Product
	err := store.View(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		got, err = uow.Products().List(context.Background(), entity.ProductFilter{
			Search:   "lap",
			Category: "electronics",
			MinPrice: &minPrice,
			SortBy:   "price",
			Desc:     true,
			Page:     2,
			Limit:    20,
		})
		return err
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Laptop", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductSearchPassesTermVerbatim(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+productColumns+" FROM products WHERE (strpos(lower(name), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0) ORDER BY id ASC",
	)).
		WithArgs("50%").
		WillReturnRows(productRows().AddRow(8, "Gift card", "50% off", 25.0, 3, "", "", created))
	mock.ExpectCommit()

	var got []entity.Product
	err := store.View(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		got, err = uow.Products().List(context.Background(), entity.ProductFilter{Search: "50%"})
		return err
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gift card", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductListEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + productColumns + " FROM products ORDER BY id ASC")).
		WillReturnRows(productRows())
	mock.ExpectCommit()

	var got []entity.Product
	err := store.View(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		got, err = uow.Products().List(context.Background(), entity.ProductFilter{})
		return err
	})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAdjustStock(t *testing.T) {
	adjust := regexp.QuoteMeta("UPDATE products SET stock = stock + $1 WHERE id = $2 AND stock + $1 >= 0")

	t.Run("applied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(adjust).WithArgs(-2, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
			return uow.Products().AdjustStock(context.Background(), 1, -2)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("would go negative", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(adjust).WithArgs(-5, 1).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs(1).
			WillReturnRows(productRows().AddRow(1, "Laptop", "", 999.99, 2, "", "", created))
		mock.ExpectRollback()

		err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
			return uow.Products().AdjustStock(context.Background(), 1, -5)
		})
		assert.ErrorIs(t, err, entity.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing product", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(adjust).WithArgs(-1, 9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs(9).
			WillReturnRows(productRows())
		mock.ExpectRollback()

		err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
			return uow.Products().AdjustStock(context.Background(), 9, -1)
		})
		assert.ErrorIs(t, err, entity.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCartClearReturnsCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	var n int64
	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		n, err = uow.Cart().Clear(context.Background(), 7)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartListForUpdateLocksCartRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.user_id = $1 ORDER BY c.id FOR UPDATE OF c")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "product_id", "quantity",
			"id", "name", "description", "price", "stock", "image_url", "category", "created_at",
		}).AddRow(4, 7, 3, 2, 3, "Laptop", "fast", 999.99, 5, "", "electronics", created))
	mock.ExpectCommit()

	var got []entity.CartItem
	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		got, err = uow.Cart().ListByUserForUpdate(context.Background(), 7)
		return err
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quantity)
	require.NotNil(t, got[0].Product)
	assert.Equal(t, "Laptop", got[0].Product.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartDeleteOtherUsersItem(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE id = $1 AND user_id = $2")).
		WithArgs(4, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Cart().Delete(context.Background(), 2, 4)
	})

	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateWithItems(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(5, "pending", 60.27, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(11, 1, 3, 20.09).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	o := &entity.Order{
		UserID:      5,
		Status:      entity.StatusPending,
		TotalAmount: 60.27,
		Items:       []entity.OrderItem{{ProductID: 1, Quantity: 3, Price: 20.09}},
	}
	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Orders().Create(context.Background(), o)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), o.ID)
	assert.Equal(t, int64(11), o.Items[0].OrderID)
	assert.Equal(t, int64(100), o.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByIDForUserLoadsItems(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 AND user_id = $2")).
		WithArgs(11, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total_amount", "payment_intent_id", "created_at"}).
			AddRow(11, 5, "paid", 60.27, "pi_1", created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "quantity", "price",
			"id", "name", "description", "price", "stock", "image_url", "category", "created_at",
		}).AddRow(100, 11, 1, 3, 20.09, 1, "Mouse", "", 20.09, 7, "", "", created))
	mock.ExpectCommit()

	var got *entity.Order
	err := store.View(context.Background(), func(uow repository.UnitOfWork) error {
		var err error
		got, err = uow.Orders().FindByIDForUser(context.Background(), 11, 5)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mouse", got.Items[0].Product.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByIDForUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 AND user_id = $2")).
		WithArgs(11, 6).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total_amount", "payment_intent_id", "created_at"}))
	mock.ExpectRollback()

	err := store.View(context.Background(), func(uow repository.UnitOfWork) error {
		_, err := uow.Orders().FindByIDForUser(context.Background(), 11, 6)
		return err
	})

	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateStatusConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs("cancelled", 11, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)")).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Orders().UpdateStatus(context.Background(), 11, entity.StatusPending, entity.StatusCancelled)
	})

	assert.ErrorIs(t, err, entity.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderMarkPaid(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1, payment_intent_id = $2 WHERE id = $3 AND status = $4")).
		WithArgs("paid", "pi_123", 11, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		return uow.Orders().MarkPaid(context.Background(), 11, "pi_123")
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
