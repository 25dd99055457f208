package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/service"
)

type fakeCatalog struct {
	components []domain.Component
	created    domain.Component
	deleted    domain.ComponentKey
	fullAccess bool
	frameset   domain.FramesetFilter
	wheelPair  domain.WheelPairFilter
	err        error
}

func (f *fakeCatalog) List(_ context.Context, _ domain.ComponentKind, fullAccess bool) ([]domain.Component, error) {
	f.fullAccess = fullAccess
	return f.components, f.err
}

func (f *fakeCatalog) Create(_ context.Context, c domain.Component) error {
	f.created = c
	return f.err
}

func (f *fakeCatalog) Update(_ context.Context, c domain.Component) error {
	f.created = c
	return f.err
}

func (f *fakeCatalog) Delete(_ context.Context, _ domain.ComponentKind, key domain.ComponentKey) error {
	f.deleted = key
	return f.err
}

func (f *fakeCatalog) FilterFramesets(_ context.Context, filter domain.FramesetFilter) ([]domain.Frameset, error) {
	f.frameset = filter
	return nil, f.err
}

func (f *fakeCatalog) FilterHandlebars(_ context.Context, _ domain.HandlebarFilter) ([]domain.Handlebar, error) {
	return nil, f.err
}

func (f *fakeCatalog) FilterWheelPairs(_ context.Context, filter domain.WheelPairFilter) ([]domain.WheelPair, error) {
	f.wheelPair = filter
	return nil, f.err
}

func (f *fakeCatalog) FramesetSizes(context.Context) ([]decimal.Decimal, error) {
	return nil, f.err
}

func (f *fakeCatalog) WheelDiameters(context.Context) ([]decimal.Decimal, error) {
	return []decimal.Decimal{decimal.NewFromInt(26), decimal.NewFromInt(28)}, f.err
}

type fakeStorefront struct {
	req   service.CheckoutRequest
	order *domain.Order
	err   error
}

func (f *fakeStorefront) Checkout(_ context.Context, req service.CheckoutRequest) (*domain.Order, error) {
	f.req = req
	return f.order, f.err
}

type fakeLedger struct {
	orders    map[string]*domain.Order
	calls     []string
	cancelled string
	status    domain.OrderStatus
	staffID   string
	err       error
}

func (f *fakeLedger) FindByID(_ context.Context, orderNumber string) (*domain.Order, error) {
	f.calls = append(f.calls, "FindByID")
	if o, ok := f.orders[orderNumber]; ok {
		return o, nil
	}
	return nil, domain.OrderNotFound(orderNumber)
}

func (f *fakeLedger) FindByCustomer(context.Context, string) ([]domain.Order, error) {
	f.calls = append(f.calls, "FindByCustomer")
	return nil, f.err
}

func (f *fakeLedger) FindByStaff(context.Context, string) ([]domain.Order, error) {
	f.calls = append(f.calls, "FindByStaff")
	return nil, f.err
}

func (f *fakeLedger) FindPendingUnassigned(context.Context) ([]domain.Order, error) {
	f.calls = append(f.calls, "FindPendingUnassigned")
	return nil, f.err
}

func (f *fakeLedger) CancelOrder(_ context.Context, orderNumber string) error {
	f.cancelled = orderNumber
	return f.err
}

func (f *fakeLedger) SetStatus(_ context.Context, _ string, status domain.OrderStatus) error {
	f.status = status
	return f.err
}

func (f *fakeLedger) AssignStaff(_ context.Context, _ string, staffID string) error {
	f.staffID = staffID
	return f.err
}

func (f *fakeLedger) UnassignStaff(context.Context, string) error {
	f.calls = append(f.calls, "UnassignStaff")
	return f.err
}

type fakeCustomers struct {
	registered domain.Customer
	updated    domain.Customer
	known      []domain.Customer
	err        error
}

func (f *fakeCustomers) Register(_ context.Context, c domain.Customer) (domain.Customer, error) {
	f.registered = c
	c.ID = "10000000001"
	return c, f.err
}

func (f *fakeCustomers) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	return nil, domain.CustomerNotFound(id)
}

func (f *fakeCustomers) Authenticate(_ context.Context, d domain.Customer) (*domain.Customer, error) {
	if err := domain.CheckLength(d.Forename, d.Surname, d.Postcode); err != nil {
		return nil, err
	}
	for _, c := range f.known {
		if c.Forename == d.Forename && c.Surname == d.Surname && c.Postcode == d.Postcode && c.HouseNumber == d.HouseNumber {
			return &c, nil
		}
	}
	return nil, domain.CustomerNotMatched()
}

func (f *fakeCustomers) Update(_ context.Context, c domain.Customer) error {
	if f.err != nil {
		return f.err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	for _, k := range f.known {
		if k.ID == c.ID {
			f.updated = c
			return nil
		}
	}
	return domain.CustomerNotFound(c.ID)
}

func (f *fakeCustomers) ListAll(context.Context) ([]domain.Customer, error) {
	return f.known, f.err
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		OrderNumber:   "20000000001",
		TotalCost:     decimal.RequireFromString("500.50"),
		Status:        domain.OrderStatusPending,
		CustomerID:    "10000000001",
		ProductSerial: "300000000001",
		Items: []domain.LineItem{
			{ItemID: "300000000001", BrandName: "B", Type: domain.ItemProduct, Quantity: 1, Cost: decimal.RequireFromString("490.50")},
		},
	}
}
