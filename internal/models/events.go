package models

import "time"

// Event types
const (
	EventTypeProcurementRequested = "PROCUREMENT_REQUESTED"
	EventTypeProcurementCompleted = "PROCUREMENT_COMPLETED"
	EventTypeProcurementFailed    = "PROCUREMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcurementRequestedEvent published when a procurement order is accepted
type ProcurementRequestedEvent struct {
	BaseEvent
	OrderID         int64              `json:"order_id"`
	CustomerID      int64              `json:"customer_id"`
	Request         ProcurementRequest `json:"request"`
	PreferredBrands []string           `json:"preferred_brands,omitempty"`
}

// ProcurementCompletedEvent published when the purchase went through
type ProcurementCompletedEvent struct {
	BaseEvent
	OrderID         int64     `json:"order_id"`
	CustomerID      int64     `json:"customer_id"`
	PurchaseOrderID string    `json:"purchase_order_id"`
	TotalCost       float64   `json:"total_cost"`
	Products        []Product `json:"products"`
}

// ProcurementFailedEvent published when the run ended without a purchase
type ProcurementFailedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Reason     string `json:"reason"`
}
