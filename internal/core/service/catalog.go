package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/port"
)

// Catalog bundles the three component inventories with their kind-specific filters.
type Catalog struct {
	Framesets  *InventoryService[domain.Frameset]
	Handlebars *InventoryService[domain.Handlebar]
	WheelPairs *InventoryService[domain.WheelPair]

	framesets  port.FramesetRepository
	handlebars port.HandlebarRepository
	wheelPairs port.WheelPairRepository
}

func NewCatalog(
	framesets port.FramesetRepository,
	handlebars port.HandlebarRepository,
	wheelPairs port.WheelPairRepository,
	stock port.StockRepository,
	logger *zap.Logger,
) *Catalog {
	return &Catalog{
		Framesets:  NewInventoryService[domain.Frameset](framesets, stock, logger),
		Handlebars: NewInventoryService[domain.Handlebar](handlebars, stock, logger),
		WheelPairs: NewInventoryService[domain.WheelPair](wheelPairs, stock, logger),
		framesets:  framesets,
		handlebars: handlebars,
		wheelPairs: wheelPairs,
	}
}

// FilterFramesets returns in-stock framesets matching filter, cheapest first,
// or domain.ErrNoMatch when nothing matches.
func (c *Catalog) FilterFramesets(ctx context.Context, filter domain.FramesetFilter) ([]domain.Frameset, error) {
	found, err := c.framesets.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.NoMatch(domain.KindFrameset)
	}
	return found, nil
}

func (c *Catalog) FilterHandlebars(ctx context.Context, filter domain.HandlebarFilter) ([]domain.Handlebar, error) {
	found, err := c.handlebars.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.NoMatch(domain.KindHandlebar)
	}
	return found, nil
}

func (c *Catalog) FilterWheelPairs(ctx context.Context, filter domain.WheelPairFilter) ([]domain.WheelPair, error) {
	found, err := c.wheelPairs.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.NoMatch(domain.KindWheelPair)
	}
	return found, nil
}

// FramesetSizes lists the distinct sizes currently in stock.
func (c *Catalog) FramesetSizes(ctx context.Context) ([]decimal.Decimal, error) {
	return c.framesets.AvailableSizes(ctx)
}

func (c *Catalog) WheelDiameters(ctx context.Context) ([]decimal.Decimal, error) {
	return c.wheelPairs.AvailableDiameters(ctx)
}

// Create, Update, Delete and List dispatch on the component kind for
// transports that handle all kinds through one route.

func (c *Catalog) Create(ctx context.Context, component domain.Component) error {
	switch v := component.(type) {
	case domain.Frameset:
		return c.Framesets.Create(ctx, v)
	case domain.Handlebar:
		return c.Handlebars.Create(ctx, v)
	case domain.WheelPair:
		return c.WheelPairs.Create(ctx, v)
	}
	return unknownKind(component.Kind())
}

func (c *Catalog) Update(ctx context.Context, component domain.Component) error {
	switch v := component.(type) {
	case domain.Frameset:
		return c.Framesets.Update(ctx, v)
	case domain.Handlebar:
		return c.Handlebars.Update(ctx, v)
	case domain.WheelPair:
		return c.WheelPairs.Update(ctx, v)
	}
	return unknownKind(component.Kind())
}

func (c *Catalog) Delete(ctx context.Context, kind domain.ComponentKind, key domain.ComponentKey) error {
	switch kind {
	case domain.KindFrameset:
		return c.Framesets.Delete(ctx, key)
	case domain.KindHandlebar:
		return c.Handlebars.Delete(ctx, key)
	case domain.KindWheelPair:
		return c.WheelPairs.Delete(ctx, key)
	}
	return unknownKind(kind)
}

func (c *Catalog) List(ctx context.Context, kind domain.ComponentKind, fullAccess bool) ([]domain.Component, error) {
	switch kind {
	case domain.KindFrameset:
		list, err := c.Framesets.ListAll(ctx, fullAccess)
		return asComponents(list, err)
	case domain.KindHandlebar:
		list, err := c.Handlebars.ListAll(ctx, fullAccess)
		return asComponents(list, err)
	case domain.KindWheelPair:
		list, err := c.WheelPairs.ListAll(ctx, fullAccess)
		return asComponents(list, err)
	}
	return nil, unknownKind(kind)
}

func asComponents[T domain.Component](list []T, err error) ([]domain.Component, error) {
	if err != nil {
		return nil, err
	}
	out := make([]domain.Component, 0, len(list))
	for _, c := range list {
		out = append(out, c)
	}
	return out, nil
}

func unknownKind(kind domain.ComponentKind) error {
	return fmt.Errorf("%w: unknown component kind %q", domain.ErrInvalidInput, kind)
}
