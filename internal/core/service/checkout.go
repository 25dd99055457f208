package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/port"
)

const checkoutKeyPrefix = "checkout:"

type CheckoutRequest struct {
	RequestID  string
	CustomerID string
	CustomName string
	Frameset   domain.ComponentKey
	Handlebar  domain.ComponentKey
	WheelPair  domain.ComponentKey
}

// Storefront runs the customer checkout: look up the selected parts, assemble
// the bicycle and hand it to the order ledger.
type Storefront struct {
	catalog  *Catalog
	assembly *AssemblyService
	orders   *OrderService
	cache    port.CacheRepository
	logger   *zap.Logger
}

// NewStorefront wires checkout. cache may be nil, which disables duplicate detection.
func NewStorefront(catalog *Catalog, assembly *AssemblyService, orders *OrderService, cache port.CacheRepository, logger *zap.Logger) *Storefront {
	return &Storefront{
		catalog:  catalog,
		assembly: assembly,
		orders:   orders,
		cache:    cache,
		logger:   logger,
	}
}

func (s *Storefront) Checkout(ctx context.Context, req CheckoutRequest) (_ *domain.Order, err error) {
	if req.RequestID != "" && s.cache != nil {
		key := checkoutKeyPrefix + req.RequestID

		ok, setErr := s.cache.SetIdempotency(ctx, key)
		if setErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", setErr)
		}
		if !ok {
			return nil, fmt.Errorf("%w: request %s was already submitted", domain.ErrDuplicateRequest, req.RequestID)
		}

		defer func() {
			if err == nil {
				return
			}
			if relErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Error("release idempotency key failed", zap.String("key", key), zap.Error(relErr))
			}
		}()
	}

	handlebar, err := lookup(ctx, s.catalog.Handlebars, req.Handlebar)
	if err != nil {
		return nil, err
	}
	frameset, err := lookup(ctx, s.catalog.Framesets, req.Frameset)
	if err != nil {
		return nil, err
	}
	wheelPair, err := lookup(ctx, s.catalog.WheelPairs, req.WheelPair)
	if err != nil {
		return nil, err
	}

	bike, err := s.assembly.Assemble(ctx, req.CustomName, handlebar, frameset, wheelPair)
	if err != nil {
		return nil, err
	}

	return s.orders.PlaceOrder(ctx, req.CustomerID, bike)
}

// lookup resolves an optional selection; an empty key leaves the slot unset.
func lookup[T domain.Component](ctx context.Context, inv *InventoryService[T], key domain.ComponentKey) (*T, error) {
	if key.IsZero() {
		return nil, nil
	}
	c, err := inv.FindByID(ctx, key)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
