package service

import (
	"context"
	"database/sql"
	"time"

	"procurement-service/internal/models"
)

// CustomerRepository is the customer persistence used by the services
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context, skip, limit int) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
}

// OrderRepository is the order persistence used by the services
type OrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, customerID *int64, skip, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string, notes sql.NullString) error
	CompleteOrder(ctx context.Context, orderID int64, status string, totalAmount float64, notes sql.NullString) error
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderItem(ctx context.Context, item *models.OrderItem) error
}

// EventLog records which events have already been handled
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ProcurementRepository is everything ProcurementService persists
type ProcurementRepository interface {
	CustomerRepository
	OrderRepository
	EventLog
}

// Locker provides a token based distributed lock
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// ProcurementPublisher emits procurement events
type ProcurementPublisher interface {
	PublishProcurementRequested(ctx context.Context, event *models.ProcurementRequestedEvent) error
	PublishProcurementCompleted(ctx context.Context, event *models.ProcurementCompletedEvent) error
	PublishProcurementFailed(ctx context.Context, event *models.ProcurementFailedEvent) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
