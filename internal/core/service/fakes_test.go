package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/port"
)

var errInjected = errors.New("injected storage failure")

type productRow struct {
	serial, name, brand string
	refs                []domain.ComponentRef
}

type memState struct {
	components map[domain.ComponentRef]domain.Component
	products   map[string]productRow
	orders     map[string]domain.Order
	items      map[string][]domain.LineItem
	customers  map[string]domain.Customer
}

func (s *memState) clone() *memState {
	c := &memState{
		components: make(map[domain.ComponentRef]domain.Component, len(s.components)),
		products:   make(map[string]productRow, len(s.products)),
		orders:     make(map[string]domain.Order, len(s.orders)),
		items:      make(map[string][]domain.LineItem, len(s.items)),
		customers:  make(map[string]domain.Customer, len(s.customers)),
	}
	for k, v := range s.components {
		c.components[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]domain.LineItem(nil), v...)
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	return c
}

// memStore is a port.Store whose transactions are serialised by one mutex
// and rolled back by restoring a snapshot.
type memStore struct {
	mu     sync.Mutex
	state  *memState
	failAt map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			components: make(map[domain.ComponentRef]domain.Component),
			products:   make(map[string]productRow),
			orders:     make(map[string]domain.Order),
			items:      make(map[string][]domain.LineItem),
			customers:  make(map[string]domain.Customer),
		},
		failAt: make(map[string]error),
	}
}

func (s *memStore) failOn(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt[op] = errInjected
}

func (s *memStore) seed(components ...domain.Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range components {
		s.state.components[domain.ComponentRef{Kind: c.Kind(), Key: c.Key()}] = c
	}
}

func (s *memStore) stockOf(c domain.Component) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.components[domain.ComponentRef{Kind: c.Kind(), Key: c.Key()}].Info().Stock
}

func (s *memStore) counts() (orders, products, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.state.items {
		items += len(v)
	}
	return len(s.state.orders), len(s.state.products), items
}

func (s *memStore) repos(inTx bool) memRepos { return memRepos{s: s, inTx: inTx} }

func (s *memStore) Orders() port.OrderRepository       { return memOrders{s.repos(false)} }
func (s *memStore) Products() port.ProductRepository   { return memProducts{s.repos(false)} }
func (s *memStore) LineItems() port.LineItemRepository { return memItems{s.repos(false)} }
func (s *memStore) Stock() port.StockRepository        { return memStock{s.repos(false)} }
func (s *memStore) Customers() port.CustomerRepository { return memCustomers{s.repos(false)} }
func (s *memStore) Framesets() port.FramesetRepository {
	return memFramesets{memComponents[domain.Frameset]{s.repos(false)}}
}
func (s *memStore) Handlebars() port.HandlebarRepository {
	return memHandlebars{memComponents[domain.Handlebar]{s.repos(false)}}
}
func (s *memStore) WheelPairs() port.WheelPairRepository {
	return memWheelPairs{memComponents[domain.WheelPair]{s.repos(false)}}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, txRepos{s.repos(true)}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

type txRepos struct{ r memRepos }

func (t txRepos) Orders() port.OrderRepository       { return memOrders{t.r} }
func (t txRepos) Products() port.ProductRepository   { return memProducts{t.r} }
func (t txRepos) LineItems() port.LineItemRepository { return memItems{t.r} }
func (t txRepos) Stock() port.StockRepository        { return memStock{t.r} }
func (t txRepos) Customers() port.CustomerRepository { return memCustomers{t.r} }

type memRepos struct {
	s    *memStore
	inTx bool
}

// enter locks the store unless the caller already holds it through WithinTx.
func (r memRepos) enter(op string) (func(), error) {
	unlock := func() {}
	if !r.inTx {
		r.s.mu.Lock()
		unlock = r.s.mu.Unlock
	}
	if err := r.s.failAt[op]; err != nil {
		return unlock, err
	}
	return unlock, nil
}

func (r memRepos) st() *memState { return r.s.state }

type memComponents[T domain.Component] struct{ memRepos }

func (m memComponents[T]) ref(key domain.ComponentKey) domain.ComponentRef {
	var zero T
	return domain.ComponentRef{Kind: zero.Kind(), Key: key}
}

func (m memComponents[T]) Exists(_ context.Context, key domain.ComponentKey) (bool, error) {
	done, err := m.enter("components.exists")
	defer done()
	if err != nil {
		return false, err
	}
	_, ok := m.st().components[m.ref(key)]
	return ok, nil
}

func (m memComponents[T]) FindByID(_ context.Context, key domain.ComponentKey) (T, error) {
	done, err := m.enter("components.find")
	defer done()
	var zero T
	if err != nil {
		return zero, err
	}
	c, ok := m.st().components[m.ref(key)]
	if !ok {
		return zero, domain.ComponentNotFound(zero.Kind(), key)
	}
	return c.(T), nil
}

func (m memComponents[T]) Create(_ context.Context, c T) error {
	done, err := m.enter("components.create")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().components[m.ref(c.Key())]; ok {
		return domain.ComponentExists(c.Kind(), c.Key())
	}
	m.st().components[m.ref(c.Key())] = c
	return nil
}

func (m memComponents[T]) Update(_ context.Context, c T) error {
	done, err := m.enter("components.update")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().components[m.ref(c.Key())]; !ok {
		return domain.ComponentNotFound(c.Kind(), c.Key())
	}
	m.st().components[m.ref(c.Key())] = c
	return nil
}

func (m memComponents[T]) Delete(_ context.Context, key domain.ComponentKey) error {
	done, err := m.enter("components.delete")
	defer done()
	if err != nil {
		return err
	}
	delete(m.st().components, m.ref(key))
	return nil
}

func (m memComponents[T]) ListAll(_ context.Context, fullAccess bool) ([]T, error) {
	done, err := m.enter("components.list")
	defer done()
	if err != nil {
		return nil, err
	}
	return m.collect(func(c T) bool { return fullAccess || c.Info().Stock > 0 }, !fullAccess), nil
}

func (m memComponents[T]) collect(keep func(T) bool, byCost bool) []T {
	var out []T
	for _, c := range m.st().components {
		if v, ok := c.(T); ok && keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if byCost {
			return out[i].Info().Cost.LessThan(out[j].Info().Cost)
		}
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

type memFramesets struct{ memComponents[domain.Frameset] }

func (m memFramesets) Filter(_ context.Context, f domain.FramesetFilter) ([]domain.Frameset, error) {
	done, err := m.enter("components.filter")
	defer done()
	if err != nil {
		return nil, err
	}
	return m.collect(func(c domain.Frameset) bool {
		return c.Stock > 0 &&
			(f.Size == nil || c.Size.Equal(*f.Size)) &&
			(f.HasShocks == nil || c.HasShocks == *f.HasShocks)
	}, true), nil
}

func (m memFramesets) AvailableSizes(_ context.Context) ([]decimal.Decimal, error) {
	done, _ := m.enter("")
	defer done()
	var sizes []decimal.Decimal
	for _, c := range m.collect(func(c domain.Frameset) bool { return c.Stock > 0 }, false) {
		sizes = appendDistinct(sizes, c.Size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].LessThan(sizes[j]) })
	return sizes, nil
}

type memHandlebars struct {
	memComponents[domain.Handlebar]
}

func (m memHandlebars) Filter(_ context.Context, f domain.HandlebarFilter) ([]domain.Handlebar, error) {
	done, _ := m.enter("")
	defer done()
	return m.collect(func(c domain.Handlebar) bool {
		return c.Stock > 0 && (f.Type == nil || c.Type == *f.Type)
	}, true), nil
}

type memWheelPairs struct {
	memComponents[domain.WheelPair]
}

func (m memWheelPairs) Filter(_ context.Context, f domain.WheelPairFilter) ([]domain.WheelPair, error) {
	done, _ := m.enter("")
	defer done()
	return m.collect(func(c domain.WheelPair) bool {
		return c.Stock > 0 &&
			(f.Diameter == nil || c.Diameter.Equal(*f.Diameter)) &&
			(f.TyreType == nil || c.TyreType == *f.TyreType) &&
			(f.BrakeType == nil || c.BrakeType == *f.BrakeType)
	}, true), nil
}

func (m memWheelPairs) AvailableDiameters(_ context.Context) ([]decimal.Decimal, error) {
	done, _ := m.enter("")
	defer done()
	var out []decimal.Decimal
	for _, c := range m.collect(func(c domain.WheelPair) bool { return c.Stock > 0 }, false) {
		out = appendDistinct(out, c.Diameter)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out, nil
}

func appendDistinct(list []decimal.Decimal, v decimal.Decimal) []decimal.Decimal {
	for _, d := range list {
		if d.Equal(v) {
			return list
		}
	}
	return append(list, v)
}

type memStock struct{ memRepos }

func (m memStock) Adjust(_ context.Context, ref domain.ComponentRef, delta int) error {
	done, err := m.enter("stock.adjust")
	defer done()
	if err != nil {
		return err
	}
	c, ok := m.st().components[ref]
	if !ok {
		return domain.ComponentNotFound(ref.Kind, ref.Key)
	}
	next := c.Info().Stock + delta
	if next < 0 {
		return domain.ErrInsufficientStock
	}
	switch v := c.(type) {
	case domain.Frameset:
		v.Stock = next
		c = v
	case domain.Handlebar:
		v.Stock = next
		c = v
	case domain.WheelPair:
		v.Stock = next
		c = v
	}
	m.st().components[ref] = c
	return nil
}

type memProducts struct{ memRepos }

func (m memProducts) Exists(_ context.Context, serial string) (bool, error) {
	done, err := m.enter("products.exists")
	defer done()
	if err != nil {
		return false, err
	}
	_, ok := m.st().products[serial]
	return ok, nil
}

func (m memProducts) FindByID(_ context.Context, serial string) (*domain.Bicycle, error) {
	done, err := m.enter("products.find")
	defer done()
	if err != nil {
		return nil, err
	}
	row, ok := m.st().products[serial]
	if !ok {
		return nil, domain.BicycleNotFound(serial)
	}
	parts := make(map[domain.ComponentKind]domain.Component, 3)
	for _, ref := range row.refs {
		c, ok := m.st().components[ref]
		if !ok {
			return nil, domain.ComponentNotFound(ref.Kind, ref.Key)
		}
		parts[ref.Kind] = c
	}
	return &domain.Bicycle{
		SerialNumber: row.serial,
		CustomName:   row.name,
		BrandName:    row.brand,
		Handlebar:    parts[domain.KindHandlebar].(domain.Handlebar),
		Frameset:     parts[domain.KindFrameset].(domain.Frameset),
		WheelPair:    parts[domain.KindWheelPair].(domain.WheelPair),
	}, nil
}

func (m memProducts) Create(_ context.Context, bike domain.Bicycle) error {
	done, err := m.enter("products.create")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().products[bike.SerialNumber]; ok {
		return domain.ErrAlreadyExists
	}
	m.st().products[bike.SerialNumber] = productRow{
		serial: bike.SerialNumber, name: bike.CustomName, brand: bike.BrandName, refs: bike.ComponentRefs(),
	}
	return nil
}

func (m memProducts) Delete(_ context.Context, serial string) error {
	done, err := m.enter("products.delete")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().products[serial]; !ok {
		return domain.BicycleNotFound(serial)
	}
	for _, o := range m.st().orders {
		if o.ProductSerial == serial {
			return fmt.Errorf("%w: bicycle %s is still referenced by order %s", domain.ErrInvalidInput, serial, o.OrderNumber)
		}
	}
	delete(m.st().products, serial)
	return nil
}

type memOrders struct{ memRepos }

func (m memOrders) Exists(_ context.Context, n string) (bool, error) {
	done, err := m.enter("orders.exists")
	defer done()
	if err != nil {
		return false, err
	}
	_, ok := m.st().orders[n]
	return ok, nil
}

func (m memOrders) FindByID(_ context.Context, n string) (*domain.Order, error) {
	return m.find("orders.find", n)
}

// FindForUpdate needs no extra locking here: transactions are already serialised.
func (m memOrders) FindForUpdate(_ context.Context, n string) (*domain.Order, error) {
	return m.find("orders.lock", n)
}

func (m memOrders) find(op, n string) (*domain.Order, error) {
	done, err := m.enter(op)
	defer done()
	if err != nil {
		return nil, err
	}
	o, ok := m.st().orders[n]
	if !ok {
		return nil, domain.OrderNotFound(n)
	}
	return &o, nil
}

func (m memOrders) where(keep func(domain.Order) bool) ([]domain.Order, error) {
	done, err := m.enter("orders.list")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []domain.Order
	for _, o := range m.st().orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (m memOrders) FindByCustomer(_ context.Context, id string) ([]domain.Order, error) {
	return m.where(func(o domain.Order) bool { return o.CustomerID == id })
}

func (m memOrders) FindByStaff(_ context.Context, id string) ([]domain.Order, error) {
	return m.where(func(o domain.Order) bool { return o.StaffID == id })
}

func (m memOrders) FindPendingUnassigned(_ context.Context) ([]domain.Order, error) {
	return m.where(func(o domain.Order) bool { return o.Status == domain.OrderStatusPending && o.StaffID == "" })
}

func (m memOrders) Create(_ context.Context, o domain.Order) error {
	done, err := m.enter("orders.create")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().orders[o.OrderNumber]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := m.st().products[o.ProductSerial]; !ok {
		return domain.BicycleNotFound(o.ProductSerial)
	}
	o.Items = nil
	m.st().orders[o.OrderNumber] = o
	return nil
}

func (m memOrders) Delete(_ context.Context, n string) error {
	done, err := m.enter("orders.delete")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().orders[n]; !ok {
		return domain.OrderNotFound(n)
	}
	delete(m.st().orders, n)
	return nil
}

func (m memOrders) mutate(op, n string, fn func(*domain.Order)) error {
	done, err := m.enter(op)
	defer done()
	if err != nil {
		return err
	}
	o, ok := m.st().orders[n]
	if !ok {
		return domain.OrderNotFound(n)
	}
	fn(&o)
	m.st().orders[n] = o
	return nil
}

func (m memOrders) UpdateStatus(_ context.Context, n string, st domain.OrderStatus) error {
	return m.mutate("orders.update", n, func(o *domain.Order) { o.Status = st })
}

func (m memOrders) AssignStaff(_ context.Context, n, staff string) error {
	return m.mutate("orders.update", n, func(o *domain.Order) { o.StaffID = staff })
}

func (m memOrders) UnassignStaff(_ context.Context, n string) error {
	return m.mutate("orders.update", n, func(o *domain.Order) {
		o.StaffID = ""
		o.Status = domain.OrderStatusPending
	})
}

type memItems struct{ memRepos }

func (m memItems) CreateBatch(_ context.Context, items []domain.LineItem) error {
	done, err := m.enter("items.create")
	defer done()
	if err != nil {
		return err
	}
	for _, it := range items {
		m.st().items[it.OrderNumber] = append(m.st().items[it.OrderNumber], it)
	}
	return nil
}

func (m memItems) FindByOrder(_ context.Context, n string) ([]domain.LineItem, error) {
	done, err := m.enter("items.find")
	defer done()
	if err != nil {
		return nil, err
	}
	return append([]domain.LineItem(nil), m.st().items[n]...), nil
}

func (m memItems) DeleteByOrder(_ context.Context, n string) error {
	done, err := m.enter("items.delete")
	defer done()
	if err != nil {
		return err
	}
	delete(m.st().items, n)
	return nil
}

type memCustomers struct{ memRepos }

func (m memCustomers) Exists(_ context.Context, id string) (bool, error) {
	done, err := m.enter("customers.exists")
	defer done()
	if err != nil {
		return false, err
	}
	_, ok := m.st().customers[id]
	return ok, nil
}

func (m memCustomers) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	done, err := m.enter("customers.find")
	defer done()
	if err != nil {
		return nil, err
	}
	c, ok := m.st().customers[id]
	if !ok {
		return nil, domain.CustomerNotFound(id)
	}
	return &c, nil
}

func (m memCustomers) FindByDetails(_ context.Context, d domain.Customer) (*domain.Customer, error) {
	done, err := m.enter("customers.match")
	defer done()
	if err != nil {
		return nil, err
	}
	var match *domain.Customer
	for _, c := range m.st().customers {
		if c.Forename == d.Forename && c.Surname == d.Surname && c.Postcode == d.Postcode && c.HouseNumber == d.HouseNumber {
			if match == nil || c.ID < match.ID {
				match = &c
			}
		}
	}
	if match == nil {
		return nil, domain.CustomerNotMatched()
	}
	return match, nil
}

func (m memCustomers) ListAll(_ context.Context) ([]domain.Customer, error) {
	done, err := m.enter("customers.list")
	defer done()
	if err != nil {
		return nil, err
	}
	out := []domain.Customer{}
	for _, c := range m.st().customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCustomers) Update(_ context.Context, c domain.Customer) error {
	done, err := m.enter("customers.update")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := m.st().customers[c.ID]; !ok {
		return domain.CustomerNotFound(c.ID)
	}
	m.st().customers[c.ID] = c
	return nil
}

func (m memCustomers) Create(_ context.Context, c domain.Customer) error {
	done, err := m.enter("customers.create")
	defer done()
	if err != nil {
		return err
	}
	m.st().customers[c.ID] = c
	return nil
}

// mockCacheRepo mirrors the Redis SET NX semantics.
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	released       []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []domain.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
