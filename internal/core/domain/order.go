package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderNumberLength = 11
	CustomerIDLength  = 11
	LineItemsPerOrder = 4
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
}

// CanTransitionTo reports whether staff may move an order from s to next.
// Returning to PENDING is only possible by unassigning staff.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusFulfilled
	case OrderStatusConfirmed:
		return next == OrderStatusFulfilled
	}
	return false
}

type ItemType string

const (
	ItemProduct   ItemType = "PRODUCT"
	ItemHandlebar ItemType = "HANDLEBAR"
	ItemFrameset  ItemType = "FRAMESET"
	ItemWheelPair ItemType = "WHEELPAIR"
)

func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(s); t {
	case ItemProduct, ItemHandlebar, ItemFrameset, ItemWheelPair:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, s)
}

type LineItem struct {
	ItemID      string
	BrandName   string
	Type        ItemType
	Quantity    int
	Cost        decimal.Decimal
	OrderNumber string
}

type Order struct {
	OrderNumber   string
	Date          time.Time
	TotalCost     decimal.Decimal
	Status        OrderStatus
	CustomerID    string
	StaffID       string
	ProductSerial string
	Items         []LineItem
}

// NewOrder prepares a pending order for bike: one assembly-fee item plus one
// item per component, with the total summed from the items.
func NewOrder(orderNumber, customerID string, bike Bicycle, now time.Time) Order {
	items := []LineItem{
		{ItemID: bike.SerialNumber, BrandName: bike.BrandName, Type: ItemProduct, Cost: AssemblyFee},
		{ItemID: bike.Handlebar.SerialNumber, BrandName: bike.Handlebar.BrandName, Type: ItemHandlebar, Cost: bike.Handlebar.Cost},
		{ItemID: bike.Frameset.SerialNumber, BrandName: bike.Frameset.BrandName, Type: ItemFrameset, Cost: bike.Frameset.Cost},
		{ItemID: bike.WheelPair.SerialNumber, BrandName: bike.WheelPair.BrandName, Type: ItemWheelPair, Cost: bike.WheelPair.Cost},
	}

	total := decimal.Zero
	for i := range items {
		items[i].Quantity = 1
		items[i].OrderNumber = orderNumber
		total = total.Add(items[i].Cost)
	}

	return Order{
		OrderNumber:   orderNumber,
		Date:          now,
		TotalCost:     total,
		Status:        OrderStatusPending,
		CustomerID:    customerID,
		ProductSerial: bike.SerialNumber,
		Items:         items,
	}
}

// AttachItems sets the order's line items, rejecting any set that is not exactly four.
func (o *Order) AttachItems(items []LineItem) error {
	if len(items) != LineItemsPerOrder {
		return fmt.Errorf("%w: the order with number %s has been corrupted (%d line items), please contact a staff member",
			ErrInvalidOrder, o.OrderNumber, len(items))
	}
	o.Items = items
	return nil
}

func OrderNotFound(orderNumber string) error {
	return fmt.Errorf("%w: the order with number %s could not be found", ErrNotFound, orderNumber)
}

func InvalidTransition(orderNumber string, from, to OrderStatus) error {
	return fmt.Errorf("%w: order %s cannot move from %s to %s", ErrInvalidTransition, orderNumber, from, to)
}
