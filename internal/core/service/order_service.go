package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/port"
)

const tracerName = "github.com/rl1809/bikeshop/internal/core/service"

// OrderService is the order ledger. Placing and cancelling an order each run
// as a single storage transaction covering the order row, its line items, the
// product row and the stock of the three components.
type OrderService struct {
	store     port.Store
	ids       *ident.Allocator
	publisher port.EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService wires the ledger. publisher may be nil.
func NewOrderService(store port.Store, ids *ident.Allocator, publisher port.EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:     store,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// PlaceOrder persists bike as a new pending order for customerID and reserves
// one unit of each of its components.
//
// Inside the transaction the stock is reserved first, then the bicycle, the
// order and its line items are inserted. Competing orders for the same
// component therefore queue on its row lock before touching any other row, and
// the order is only written once the bicycle it references exists.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID string, bike domain.Bicycle) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.place", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("product.serial", bike.SerialNumber),
	))
	defer func() { endSpan(span, err) }()

	if err := bike.Validate(); err != nil {
		return nil, err
	}

	known, err := s.store.Customers().Exists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, domain.CustomerNotFound(customerID)
	}

	orderNumber, err := s.ids.Allocate(ctx, domain.OrderNumberLength, s.store.Orders().Exists)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}
	span.SetAttributes(attribute.String("order.number", orderNumber))

	order := domain.NewOrder(orderNumber, customerID, bike, s.now())

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Repositories) error {
		if err := reserve(ctx, tx.Stock(), bike); err != nil {
			return err
		}
		if err := tx.Products().Create(ctx, bike); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.LineItems().CreateBatch(ctx, order.Items)
	})
	if err != nil {
		s.logger.Warn("place order rolled back",
			zap.String("order_number", orderNumber),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", customerID),
		zap.String("product_serial", bike.SerialNumber),
		zap.Stringer("total_cost", order.TotalCost),
	)
	s.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderPlaced,
		OrderNumber: order.OrderNumber,
		CustomerID:  customerID,
		Status:      order.Status,
		TotalCost:   order.TotalCost.StringFixed(2),
	})

	return &order, nil
}

// CancelOrder deletes a pending order together with its product and line
// items and releases the reserved component stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderNumber string) (err error) {
	ctx, span := s.tracer.Start(ctx, "order.cancel", trace.WithAttributes(
		attribute.String("order.number", orderNumber),
	))
	defer func() { endSpan(span, err) }()

	exists, err := s.store.Orders().Exists(ctx, orderNumber)
	if err != nil {
		return err
	}
	if !exists {
		return domain.OrderNotFound(orderNumber)
	}

	var cancelled domain.Order
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Repositories) error {
		order, err := tx.Orders().FindForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be cancelled, order %s is %s",
				domain.ErrInvalidTransition, orderNumber, order.Status)
		}
		cancelled = *order

		bike, err := tx.Products().FindByID(ctx, order.ProductSerial)
		if err != nil {
			return err
		}
		if err := tx.LineItems().DeleteByOrder(ctx, orderNumber); err != nil {
			return err
		}
		if err := tx.Orders().Delete(ctx, orderNumber); err != nil {
			return err
		}
		if err := tx.Products().Delete(ctx, bike.SerialNumber); err != nil {
			return err
		}
		return release(ctx, tx.Stock(), *bike)
	})
	if err != nil {
		s.logger.Warn("cancel order rolled back", zap.String("order_number", orderNumber), zap.Error(err))
		return err
	}

	s.logger.Info("order cancelled",
		zap.String("order_number", orderNumber),
		zap.String("product_serial", cancelled.ProductSerial),
	)
	s.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderCancelled,
		OrderNumber: orderNumber,
		CustomerID:  cancelled.CustomerID,
	})
	return nil
}

// SetStatus moves an order along PENDING -> CONFIRMED -> FULFILLED.
func (s *OrderService) SetStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (err error) {
	ctx, span := s.tracer.Start(ctx, "order.set_status", trace.WithAttributes(
		attribute.String("order.number", orderNumber),
		attribute.String("order.status", string(status)),
	))
	defer func() { endSpan(span, err) }()

	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Repositories) error {
		order, err := tx.Orders().FindForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return domain.InvalidTransition(orderNumber, order.Status, status)
		}
		return tx.Orders().UpdateStatus(ctx, orderNumber, status)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order status changed", zap.String("order_number", orderNumber), zap.String("status", string(status)))
	s.publish(ctx, domain.OrderEvent{Type: domain.EventStatusChanged, OrderNumber: orderNumber, Status: status})
	return nil
}

func (s *OrderService) AssignStaff(ctx context.Context, orderNumber, staffID string) error {
	if staffID == "" {
		return fmt.Errorf("%w: staff id is required", domain.ErrInvalidInput)
	}
	if err := domain.CheckLength(staffID); err != nil {
		return err
	}

	if err := s.store.Orders().AssignStaff(ctx, orderNumber, staffID); err != nil {
		return err
	}

	s.logger.Info("staff assigned", zap.String("order_number", orderNumber), zap.String("staff_id", staffID))
	s.publish(ctx, domain.OrderEvent{Type: domain.EventStaffAssigned, OrderNumber: orderNumber, StaffID: staffID})
	return nil
}

// UnassignStaff clears the assignment and puts the order back to PENDING.
func (s *OrderService) UnassignStaff(ctx context.Context, orderNumber string) error {
	if err := s.store.Orders().UnassignStaff(ctx, orderNumber); err != nil {
		return err
	}

	s.logger.Info("staff unassigned", zap.String("order_number", orderNumber))
	s.publish(ctx, domain.OrderEvent{
		Type:        domain.EventStaffUnassigned,
		OrderNumber: orderNumber,
		Status:      domain.OrderStatusPending,
	})
	return nil
}

func (s *OrderService) FindByID(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.store.Orders().FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, orders)
}

func (s *OrderService) FindByStaff(ctx context.Context, staffID string) ([]domain.Order, error) {
	orders, err := s.store.Orders().FindByStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, orders)
}

// FindPendingUnassigned lists the orders waiting for a staff member to pick them up.
func (s *OrderService) FindPendingUnassigned(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.Orders().FindPendingUnassigned(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, orders)
}

func (s *OrderService) hydrate(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	for i := range orders {
		if err := s.attachItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *OrderService) attachItems(ctx context.Context, order *domain.Order) error {
	items, err := s.store.LineItems().FindByOrder(ctx, order.OrderNumber)
	if err != nil {
		return err
	}
	if err := order.AttachItems(items); err != nil {
		s.logger.Error("corrupt order", zap.String("order_number", order.OrderNumber), zap.Int("items", len(items)))
		return err
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish order event failed",
			zap.String("type", string(event.Type)),
			zap.String("order_number", event.OrderNumber),
			zap.Error(err),
		)
	}
}

// reserve takes one unit of each component of bike.
func reserve(ctx context.Context, stock port.StockRepository, bike domain.Bicycle) error {
	for _, ref := range bike.ComponentRefs() {
		if err := stock.Adjust(ctx, ref, -1); err != nil {
			return fmt.Errorf("reserve %s %s: %w", ref.Kind, ref.Key, err)
		}
	}
	return nil
}

// release gives back the unit reserve took.
func release(ctx context.Context, stock port.StockRepository, bike domain.Bicycle) error {
	for _, ref := range bike.ComponentRefs() {
		if err := stock.Adjust(ctx, ref, 1); err != nil {
			return fmt.Errorf("release %s %s: %w", ref.Kind, ref.Key, err)
		}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
