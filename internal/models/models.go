package models

import (
	"database/sql"
	"time"
)

// Customer represents a purchasing customer
type Customer struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Company   sql.NullString `db:"company" json:"-"`
	Phone     sql.NullString `db:"phone" json:"-"`
	Address   sql.NullString `db:"address" json:"-"`
	Notes     sql.NullString `db:"notes" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Order represents one procurement order
type Order struct {
	ID          int64           `db:"id" json:"id"`
	CustomerID  int64           `db:"customer_id" json:"customer_id"`
	Status      string          `db:"status" json:"status"`
	TotalAmount float64         `db:"total_amount" json:"total_amount"`
	BudgetLimit sql.NullFloat64 `db:"budget_limit" json:"-"`
	Notes       sql.NullString  `db:"notes" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem represents one requested item of an order and how it was filled
type OrderItem struct {
	ID                int64           `db:"id" json:"id"`
	OrderID           int64           `db:"order_id" json:"order_id"`
	ItemName          string          `db:"item_name" json:"item_name"`
	RequestedQuantity int             `db:"requested_quantity" json:"requested_quantity"`
	ProductID         sql.NullString  `db:"product_id" json:"-"`
	ProductName       sql.NullString  `db:"product_name" json:"-"`
	Vendor            sql.NullString  `db:"vendor" json:"-"`
	Price             sql.NullFloat64 `db:"price" json:"-"`
	QuantityPurchased int             `db:"quantity_purchased" json:"quantity_purchased"`
	Status            string          `db:"status" json:"status"`
	Notes             sql.NullString  `db:"notes" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusSearching  = "searching"
	OrderStatusOptimizing = "optimizing"
	OrderStatusPurchasing = "purchasing"
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

// Order item statuses
const (
	OrderItemStatusPending   = "pending"
	OrderItemStatusPurchased = "purchased"
	OrderItemStatusUnfilled  = "unfilled"
	OrderItemStatusFailed    = "failed"
)

// ValidOrderStatus reports whether status is a known order status
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusSearching,
		OrderStatusOptimizing, OrderStatusPurchasing, OrderStatusCompleted,
		OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
