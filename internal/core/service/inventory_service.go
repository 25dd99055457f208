package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/port"
)

// InventoryService applies the write rules shared by all component kinds on
// top of a kind-specific repository.
type InventoryService[T domain.Component] struct {
	repo   port.ComponentRepository[T]
	stock  port.StockRepository
	logger *zap.Logger
}

func NewInventoryService[T domain.Component](repo port.ComponentRepository[T], stock port.StockRepository, logger *zap.Logger) *InventoryService[T] {
	var zero T
	return &InventoryService[T]{
		repo:   repo,
		stock:  stock,
		logger: logger.With(zap.String("component_kind", string(zero.Kind()))),
	}
}

func (s *InventoryService[T]) Exists(ctx context.Context, key domain.ComponentKey) (bool, error) {
	return s.repo.Exists(ctx, key)
}

func (s *InventoryService[T]) FindByID(ctx context.Context, key domain.ComponentKey) (T, error) {
	if err := domain.CheckLength(key.SerialNumber, key.BrandName); err != nil {
		var zero T
		return zero, err
	}
	return s.repo.FindByID(ctx, key)
}

func (s *InventoryService[T]) Create(ctx context.Context, component T) error {
	component, err := domain.CanonicalComponent(component)
	if err != nil {
		return err
	}

	exists, err := s.repo.Exists(ctx, component.Key())
	if err != nil {
		return err
	}
	if exists {
		return domain.ComponentExists(component.Kind(), component.Key())
	}

	if err := s.repo.Create(ctx, component); err != nil {
		return err
	}

	s.logger.Info("component created", zap.Stringer("key", component.Key()))
	return nil
}

// Update overwrites a component. Staff stock edits go through here and bypass
// the reservation ledger on purpose.
func (s *InventoryService[T]) Update(ctx context.Context, component T) error {
	component, err := domain.CanonicalComponent(component)
	if err != nil {
		return err
	}

	exists, err := s.repo.Exists(ctx, component.Key())
	if err != nil {
		return err
	}
	if !exists {
		return domain.ComponentNotFound(component.Kind(), component.Key())
	}

	if err := s.repo.Update(ctx, component); err != nil {
		return err
	}

	s.logger.Info("component updated",
		zap.Stringer("key", component.Key()),
		zap.Int("stock", component.Info().Stock),
	)
	return nil
}

func (s *InventoryService[T]) Delete(ctx context.Context, key domain.ComponentKey) error {
	var zero T
	exists, err := s.repo.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ComponentNotFound(zero.Kind(), key)
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}

	s.logger.Info("component deleted", zap.Stringer("key", key))
	return nil
}

func (s *InventoryService[T]) ListAll(ctx context.Context, fullAccess bool) ([]T, error) {
	return s.repo.ListAll(ctx, fullAccess)
}

// AdjustStock moves the stored stock of component by delta in its own
// transaction. Order workflows reserve and release through the ledger instead.
func (s *InventoryService[T]) AdjustStock(ctx context.Context, component T, delta int) error {
	ref := domain.ComponentRef{Kind: component.Kind(), Key: component.Key()}
	if err := s.stock.Adjust(ctx, ref, delta); err != nil {
		return fmt.Errorf("adjust stock of %s %s: %w", ref.Kind, ref.Key, err)
	}
	return nil
}
