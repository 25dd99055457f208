package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

// ComponentRepository is the storage contract shared by every component kind.
type ComponentRepository[T domain.Component] interface {
	Exists(ctx context.Context, key domain.ComponentKey) (bool, error)

	// FindByID returns domain.ErrNotFound when the key is absent
	FindByID(ctx context.Context, key domain.ComponentKey) (T, error)

	// Create returns domain.ErrAlreadyExists on a duplicate composite key
	Create(ctx context.Context, component T) error

	// Update overwrites every non-key column, including stock
	Update(ctx context.Context, component T) error

	Delete(ctx context.Context, key domain.ComponentKey) error

	// ListAll returns every row when fullAccess, otherwise only rows in stock ordered by cost
	ListAll(ctx context.Context, fullAccess bool) ([]T, error)
}

type FramesetRepository interface {
	ComponentRepository[domain.Frameset]
	Filter(ctx context.Context, filter domain.FramesetFilter) ([]domain.Frameset, error)
	AvailableSizes(ctx context.Context) ([]decimal.Decimal, error)
}

type HandlebarRepository interface {
	ComponentRepository[domain.Handlebar]
	Filter(ctx context.Context, filter domain.HandlebarFilter) ([]domain.Handlebar, error)
}

type WheelPairRepository interface {
	ComponentRepository[domain.WheelPair]
	Filter(ctx context.Context, filter domain.WheelPairFilter) ([]domain.WheelPair, error)
	AvailableDiameters(ctx context.Context) ([]decimal.Decimal, error)
}

type StockRepository interface {
	// Adjust applies delta to the stock of ref, failing with
	// domain.ErrInsufficientStock instead of letting stock go negative
	Adjust(ctx context.Context, ref domain.ComponentRef, delta int) error
}

type ProductRepository interface {
	Exists(ctx context.Context, serial string) (bool, error)

	// FindByID rebuilds the bicycle with its components read from live storage
	FindByID(ctx context.Context, serial string) (*domain.Bicycle, error)

	Create(ctx context.Context, bike domain.Bicycle) error
	Delete(ctx context.Context, serial string) error
}

// OrderRepository reads and writes order rows. Returned orders carry no line items.
type OrderRepository interface {
	Exists(ctx context.Context, orderNumber string) (bool, error)
	FindByID(ctx context.Context, orderNumber string) (*domain.Order, error)

	// FindForUpdate is FindByID holding the row lock for the rest of the
	// transaction. Status checks that gate a write read through it.
	FindForUpdate(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	FindByStaff(ctx context.Context, staffID string) ([]domain.Order, error)
	FindPendingUnassigned(ctx context.Context) ([]domain.Order, error)
	Create(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderNumber string) error
	UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error
	AssignStaff(ctx context.Context, orderNumber, staffID string) error

	// UnassignStaff clears the staff reference and resets status to PENDING
	UnassignStaff(ctx context.Context, orderNumber string) error
}

type LineItemRepository interface {
	// CreateBatch writes all items in one statement; either all land or none do
	CreateBatch(ctx context.Context, items []domain.LineItem) error
	FindByOrder(ctx context.Context, orderNumber string) ([]domain.LineItem, error)
	DeleteByOrder(ctx context.Context, orderNumber string) error
}

type CustomerRepository interface {
	Exists(ctx context.Context, customerID string) (bool, error)
	FindByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// FindByDetails matches forename, surname, postcode and house number exactly.
	FindByDetails(ctx context.Context, details domain.Customer) (*domain.Customer, error)
	ListAll(ctx context.Context) ([]domain.Customer, error)
	Create(ctx context.Context, customer domain.Customer) error
	Update(ctx context.Context, customer domain.Customer) error
}

// Repositories groups the repositories a ledger workflow touches.
type Repositories interface {
	Orders() OrderRepository
	Products() ProductRepository
	LineItems() LineItemRepository
	Stock() StockRepository
	Customers() CustomerRepository
}

// Store exposes the repositories over the shared connection pool and runs
// multi-step workflows inside one storage transaction.
type Store interface {
	Repositories

	// WithinTx commits when fn returns nil and rolls back otherwise
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
