package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RavenLB/E-commerce/internal/cache"
	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/repository"
)

var errProductNotFound = entity.NotFound("Product")

// CatalogService serves product reads and the admin product operations.
type CatalogService struct {
	tx    repository.TxManager
	cache cache.ProductCache
}

func NewCatalogService(tx repository.TxManager, c cache.ProductCache) *CatalogService {
	return &CatalogService{tx: tx, cache: c}
}

func (s *CatalogService) List(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var products []entity.Product
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		products, err = uow.Products().List(ctx, f)
		return err
	})
	return products, err
}

// Get reads through the product cache.
func (s *CatalogService) Get(ctx context.Context, id int64) (*entity.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}

	var p *entity.Product
	err := s.tx.View(ctx, func(uow repository.UnitOfWork) error {
		var err error
		p, err = uow.Products().FindByID(ctx, id)
		return err
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errProductNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, p)
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in entity.ProductInput) (*entity.Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := in.Product()
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := s.ensureNameFree(ctx, uow, p.Name, 0); err != nil {
			return err
		}
		return uow.Products().Create(ctx, p)
	})
	if err != nil {
		return nil, nameConflict(err)
	}

	slog.Info("Product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Update merges the set fields of patch into the product.
func (s *CatalogService) Update(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.Product, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var p *entity.Product
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		p, err = uow.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil && *patch.Name != p.Name {
			if err := s.ensureNameFree(ctx, uow, *patch.Name, id); err != nil {
				return err
			}
		}
		patch.Apply(p)
		return uow.Products().Update(ctx, p)
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errProductNotFound
	}
	if err != nil {
		return nil, nameConflict(err)
	}

	s.cache.Invalidate(ctx, id)
	return p, nil
}

// SetStock replaces the stock level of a product.
func (s *CatalogService) SetStock(ctx context.Context, id int64, stock int) (*entity.Product, error) {
	if err := entity.ValidateStock(stock); err != nil {
		return nil, err
	}

	var p *entity.Product
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		p, err = uow.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p.Stock = stock
		return uow.Products().Update(ctx, p)
	})
	if errors.Is(err, entity.ErrNotFound) {
		return nil, errProductNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	slog.Info("Stock updated", "product_id", id, "stock", stock)
	return p, nil
}

// Delete removes a product no cart or order refers to.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		if _, err := uow.Products().FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		referenced, err := uow.Products().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return errProductReferenced
		}
		return uow.Products().Delete(ctx, id)
	})
	if errors.Is(err, entity.ErrNotFound) {
		return errProductNotFound
	}
	if errors.Is(err, entity.ErrConflict) {
		return errProductReferenced
	}
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, id)
	slog.Info("Product deleted", "product_id", id)
	return nil
}

// Seed creates products when the catalog is empty and reports how many were
// created.
func (s *CatalogService) Seed(ctx context.Context, products []entity.Product) (int, error) {
	created := 0
	err := s.tx.Do(ctx, func(uow repository.UnitOfWork) error {
		count, err := uow.Products().Count(ctx)
		if err != nil || count > 0 {
			return err
		}
		for i := range products {
			if err := uow.Products().Create(ctx, &products[i]); err != nil {
				return err
			}
		}
		created = len(products)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

var (
	errProductNameTaken  = entity.Conflict("Product with this name already exists")
	errProductReferenced = entity.Conflict("Product is referenced by existing orders or cart items")
)

func (s *CatalogService) ensureNameFree(ctx context.Context, uow repository.UnitOfWork, name string, except int64) error {
	existing, err := uow.Products().FindByName(ctx, name)
	if errors.Is(err, entity.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != except {
		return errProductNameTaken
	}
	return nil
}

// nameConflict gives a unique violation raised by storage the same message as
// the explicit check.
func nameConflict(err error) error {
	if errors.Is(err, entity.ErrConflict) {
		return errProductNameTaken
	}
	return err
}
