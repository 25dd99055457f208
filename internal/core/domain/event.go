package domain

import "time"

type OrderEventType string

const (
	EventOrderPlaced     OrderEventType = "order.placed"
	EventOrderCancelled  OrderEventType = "order.cancelled"
	EventStatusChanged   OrderEventType = "order.status_changed"
	EventStaffAssigned   OrderEventType = "order.staff_assigned"
	EventStaffUnassigned OrderEventType = "order.staff_unassigned"
)

// OrderEvent is emitted after an order workflow commits.
type OrderEvent struct {
	ID          string         `json:"id"`
	Type        OrderEventType `json:"type"`
	OrderNumber string         `json:"order_number"`
	CustomerID  string         `json:"customer_id,omitempty"`
	StaffID     string         `json:"staff_id,omitempty"`
	Status      OrderStatus    `json:"status,omitempty"`
	TotalCost   string         `json:"total_cost,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
