package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/service"
)

// The transports depend on these narrow views of the core services.

type Catalog interface {
	List(ctx context.Context, kind domain.ComponentKind, fullAccess bool) ([]domain.Component, error)
	Create(ctx context.Context, component domain.Component) error
	Update(ctx context.Context, component domain.Component) error
	Delete(ctx context.Context, kind domain.ComponentKind, key domain.ComponentKey) error
	FilterFramesets(ctx context.Context, filter domain.FramesetFilter) ([]domain.Frameset, error)
	FilterHandlebars(ctx context.Context, filter domain.HandlebarFilter) ([]domain.Handlebar, error)
	FilterWheelPairs(ctx context.Context, filter domain.WheelPairFilter) ([]domain.WheelPair, error)
	FramesetSizes(ctx context.Context) ([]decimal.Decimal, error)
	WheelDiameters(ctx context.Context) ([]decimal.Decimal, error)
}

type Storefront interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*domain.Order, error)
}

type Ledger interface {
	FindByID(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	FindByStaff(ctx context.Context, staffID string) ([]domain.Order, error)
	FindPendingUnassigned(ctx context.Context) ([]domain.Order, error)
	CancelOrder(ctx context.Context, orderNumber string) error
	SetStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error
	AssignStaff(ctx context.Context, orderNumber, staffID string) error
	UnassignStaff(ctx context.Context, orderNumber string) error
}

type Customers interface {
	Register(ctx context.Context, c domain.Customer) (domain.Customer, error)
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	Authenticate(ctx context.Context, details domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) error
	ListAll(ctx context.Context) ([]domain.Customer, error)
}
