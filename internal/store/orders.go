package store

import (
	"context"
	"database/sql"
	"fmt"

	"procurement-service/internal/models"
)

// CreateOrderWithItems inserts an order and its items in one transaction
func (s *Store) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (customer_id, status, total_amount, budget_limit, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.CustomerID, order.Status, order.TotalAmount, order.BudgetLimit, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, item_name, requested_quantity, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			items[i].OrderID, items[i].ItemName, items[i].RequestedQuantity, items[i].Status,
		).Scan(&items[i].ID, &items[i].CreatedAt, &items[i].UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a page of orders, optionally restricted to one customer
func (s *Store) ListOrders(ctx context.Context, customerID *int64, skip, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	var err error
	if customerID != nil {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE customer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3",
			*customerID, skip, limit)
	} else {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2", skip, limit)
	}
	return orders, err
}

// UpdateOrderStatus updates order status; a valid notes value replaces the stored notes
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string, notes sql.NullString) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, notes = COALESCE($2, notes), updated_at = NOW() WHERE id = $3",
		status, notes, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// CompleteOrder stores the final status and total of an order
func (s *Store) CompleteOrder(ctx context.Context, orderID int64, status string, totalAmount float64, notes sql.NullString) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, total_amount = $2, notes = COALESCE($3, notes), updated_at = NOW() WHERE id = $4",
		status, totalAmount, notes, orderID)
	return err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderItem stores how an order item was filled
func (s *Store) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE order_items
		SET product_id = $1, product_name = $2, vendor = $3, price = $4,
		    quantity_purchased = $5, status = $6, notes = $7, updated_at = NOW()
		WHERE id = $8`,
		item.ProductID, item.ProductName, item.Vendor, item.Price,
		item.QuantityPurchased, item.Status, item.Notes, item.ID)
	return err
}
