// Package memory is an in-process TxManager. A unit of work runs against a
// copy of the data and replaces the live state only when it succeeds, so it
// has the same all-or-nothing behaviour as the Postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/repository"
)

type state struct {
	users      map[int64]entity.User
	products   map[int64]entity.Product
	cart       map[int64]entity.CartItem
	orders     map[int64]entity.Order
	orderItems map[int64]entity.OrderItem
	nextID     int64
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[int64]entity.User, len(s.users)),
		products:   make(map[int64]entity.Product, len(s.products)),
		cart:       make(map[int64]entity.CartItem, len(s.cart)),
		orders:     make(map[int64]entity.Order, len(s.orders)),
		orderItems: make(map[int64]entity.OrderItem, len(s.orderItems)),
		nextID:     s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store keeps everything in memory. Units of work are serialised.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		data: (&state{}).clone(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(&unitOfWork{s: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	// Writes made by fn are discarded.
	return fn(&unitOfWork{s: s.data.clone(), now: s.now})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type unitOfWork struct {
	s   *state
	now func() time.Time
}

func (u *unitOfWork) Users() repository.UserRepository       { return userRepository{u} }
func (u *unitOfWork) Products() repository.ProductRepository { return productRepository{u} }
func (u *unitOfWork) Cart() repository.CartRepository        { return cartRepository{u} }
func (u *unitOfWork) Orders() repository.OrderRepository     { return orderRepository{u} }

type userRepository struct{ *unitOfWork }

func (r userRepository) Create(_ context.Context, u *entity.User) error {
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return entity.ErrConflict
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepository) FindByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &u, nil
}

func (r userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, entity.ErrNotFound
}

type productRepository struct{ *unitOfWork }

func (r productRepository) List(_ context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	search := strings.ToLower(f.Search)
	products := []entity.Product{}
	for _, p := range r.s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		products = append(products, p)
	}

	less := func(a, b entity.Product) bool {
		switch f.SortBy {
		case "name":
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case "price":
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.Slice(products, func(i, j int) bool {
		if f.Desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})

	if f.Limit > 0 {
		start := min(f.Offset(), len(products))
		end := min(start+f.Limit, len(products))
		products = products[start:end]
	}
	return products, nil
}

func (r productRepository) Count(context.Context) (int, error) {
	return len(r.s.products), nil
}

func (r productRepository) FindByID(_ context.Context, id int64) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &p, nil
}

func (r productRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.FindByID(ctx, id)
}

func (r productRepository) FindByName(_ context.Context, name string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r productRepository) nameTaken(name string, except int64) bool {
	for _, p := range r.s.products {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

func (r productRepository) Create(_ context.Context, p *entity.Product) error {
	if r.nameTaken(p.Name, 0) {
		return entity.ErrConflict
	}
	p.ID = r.s.id()
	p.CreatedAt = r.now()
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepository) Update(_ context.Context, p *entity.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return entity.ErrNotFound
	}
	if r.nameTaken(p.Name, p.ID) {
		return entity.ErrConflict
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepository) AdjustStock(_ context.Context, id int64, delta int) error {
	p, ok := r.s.products[id]
	if !ok {
		return entity.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return entity.ErrInsufficientStock
	}
	p.Stock += delta
	r.s.products[id] = p
	return nil
}

func (r productRepository) IsReferenced(_ context.Context, id int64) (bool, error) {
	for _, item := range r.s.orderItems {
		if item.ProductID == id {
			return true, nil
		}
	}
	for _, item := range r.s.cart {
		if item.ProductID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r productRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return entity.ErrNotFound
	}
	if referenced, _ := r.IsReferenced(ctx, id); referenced {
		return entity.ErrConflict
	}
	delete(r.s.products, id)
	return nil
}

type cartRepository struct{ *unitOfWork }

func (r cartRepository) withProduct(item entity.CartItem) entity.CartItem {
	if p, ok := r.s.products[item.ProductID]; ok {
		item.Product = &p
	}
	return item
}

func (r cartRepository) ListByUser(_ context.Context, userID int64) ([]entity.CartItem, error) {
	items := []entity.CartItem{}
	for _, item := range r.s.cart {
		if item.UserID == userID {
			items = append(items, r.withProduct(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ListByUserForUpdate needs no lock of its own: units of work never overlap.
func (r cartRepository) ListByUserForUpdate(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	return r.ListByUser(ctx, userID)
}

func (r cartRepository) FindByID(_ context.Context, userID, itemID int64) (*entity.CartItem, error) {
	item, ok := r.s.cart[itemID]
	if !ok || item.UserID != userID {
		return nil, entity.ErrNotFound
	}
	item = r.withProduct(item)
	return &item, nil
}

func (r cartRepository) FindByProduct(_ context.Context, userID, productID int64) (*entity.CartItem, error) {
	for _, item := range r.s.cart {
		if item.UserID == userID && item.ProductID == productID {
			item = r.withProduct(item)
			return &item, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r cartRepository) Create(ctx context.Context, item *entity.CartItem) error {
	if _, ok := r.s.products[item.ProductID]; !ok {
		return entity.ErrConflict
	}
	if _, err := r.FindByProduct(ctx, item.UserID, item.ProductID); err == nil {
		return entity.ErrConflict
	}
	item.ID = r.s.id()
	stored := *item
	stored.Product = nil
	r.s.cart[item.ID] = stored
	return nil
}

func (r cartRepository) UpdateQuantity(_ context.Context, userID, itemID int64, quantity int) error {
	item, ok := r.s.cart[itemID]
	if !ok || item.UserID != userID {
		return entity.ErrNotFound
	}
	item.Quantity = quantity
	r.s.cart[itemID] = item
	return nil
}

func (r cartRepository) Delete(_ context.Context, userID, itemID int64) error {
	item, ok := r.s.cart[itemID]
	if !ok || item.UserID != userID {
		return entity.ErrNotFound
	}
	delete(r.s.cart, itemID)
	return nil
}

func (r cartRepository) Clear(_ context.Context, userID int64) (int64, error) {
	var n int64
	for id, item := range r.s.cart {
		if item.UserID == userID {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

type orderRepository struct{ *unitOfWork }

func (r orderRepository) Create(_ context.Context, o *entity.Order) error {
	o.ID = r.s.id()
	o.CreatedAt = r.now()
	for i := range o.Items {
		if _, ok := r.s.products[o.Items[i].ProductID]; !ok {
			return entity.ErrConflict
		}
		o.Items[i].ID = r.s.id()
		o.Items[i].OrderID = o.ID
		item := o.Items[i]
		item.Product = nil
		r.s.orderItems[item.ID] = item
	}
	stored := *o
	stored.Items = nil
	r.s.orders[o.ID] = stored
	return nil
}

// load attaches the items and their products.
func (r orderRepository) load(o entity.Order) entity.Order {
	o.Items = []entity.OrderItem{}
	for _, item := range r.s.orderItems {
		if item.OrderID != o.ID {
			continue
		}
		if p, ok := r.s.products[item.ProductID]; ok {
			item.Product = &p
		}
		o.Items = append(o.Items, item)
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (r orderRepository) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	o = r.load(o)
	return &o, nil
}

func (r orderRepository) FindByIDForUser(_ context.Context, id, userID int64) (*entity.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, entity.ErrNotFound
	}
	o = r.load(o)
	return &o, nil
}

func (r orderRepository) List(_ context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	orders := []entity.Order{}
	for _, o := range r.s.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		orders = append(orders, r.load(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r orderRepository) UpdateStatus(_ context.Context, id int64, from, to entity.OrderStatus) error {
	o, ok := r.s.orders[id]
	if !ok {
		return entity.ErrNotFound
	}
	if o.Status != from {
		return entity.Conflict("Order status changed concurrently")
	}
	o.Status = to
	r.s.orders[id] = o
	return nil
}

func (r orderRepository) MarkPaid(_ context.Context, id int64, paymentIntentID string) error {
	o, ok := r.s.orders[id]
	if !ok {
		return entity.ErrNotFound
	}
	if o.Status != entity.StatusPending {
		return entity.Conflict("Order status changed concurrently")
	}
	o.Status = entity.StatusPaid
	o.PaymentIntentID = paymentIntentID
	r.s.orders[id] = o
	return nil
}
