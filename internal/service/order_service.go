package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
	"procurement-service/internal/util"

	"go.uber.org/zap"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// OrderService handles order business logic
type OrderService struct {
	repo   OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repo OrderRepository) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// OrderItemResponse is the API view of an order item
type OrderItemResponse struct {
	ID                int64    `json:"id"`
	ItemName          string   `json:"item_name"`
	RequestedQuantity int      `json:"requested_quantity"`
	ProductID         *string  `json:"product_id"`
	ProductName       *string  `json:"product_name"`
	Vendor            *string  `json:"vendor"`
	Price             *float64 `json:"price"`
	QuantityPurchased int      `json:"quantity_purchased"`
	Status            string   `json:"status"`
	Notes             *string  `json:"notes"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID          int64               `json:"id"`
	CustomerID  int64               `json:"customer_id"`
	Status      string              `json:"status"`
	TotalAmount float64             `json:"total_amount"`
	BudgetLimit *float64            `json:"budget_limit"`
	Notes       *string             `json:"notes"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []OrderItemResponse `json:"items"`
}

// UpdateOrderStatusRequest represents a manual status change
type UpdateOrderStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

func toOrderResponse(o *models.Order, items []models.OrderItem) *OrderResponse {
	out := &OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		BudgetLimit: floatPtr(o.BudgetLimit),
		Notes:       stringPtr(o.Notes),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Items:       make([]OrderItemResponse, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:                it.ID,
			ItemName:          it.ItemName,
			RequestedQuantity: it.RequestedQuantity,
			ProductID:         stringPtr(it.ProductID),
			ProductName:       stringPtr(it.ProductName),
			Vendor:            stringPtr(it.Vendor),
			Price:             floatPtr(it.Price),
			QuantityPurchased: it.QuantityPurchased,
			Status:            it.Status,
			Notes:             stringPtr(it.Notes),
		})
	}
	return out
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := s.repo.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	return toOrderResponse(order, items), nil
}

// ListOrders returns a page of orders, newest first, each with its items
func (s *OrderService) ListOrders(ctx context.Context, customerID *int64, skip, limit int) ([]*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.repo.ListOrders(ctx, customerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]*OrderResponse, 0, len(orders))
	for i := range orders {
		items, err := s.repo.GetOrderItemsByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order items: %w", err)
		}
		out = append(out, toOrderResponse(&orders[i], items))
	}
	return out, nil
}

// UpdateOrderStatus sets the status, and notes when given
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, req *UpdateOrderStatusRequest) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	if !models.ValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, req.Status, nullString(req.Notes)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", req.Status))

	return s.GetOrder(ctx, orderID)
}
