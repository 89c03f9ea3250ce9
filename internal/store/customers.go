package store

import (
	"context"
	"database/sql"
	"fmt"

	"procurement-service/internal/models"
)

// CreateCustomer inserts a customer and fills its id and timestamps
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, company, phone, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		c.Name, c.Email, c.Company, c.Phone, c.Address, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomerByEmail retrieves a customer by email
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns a page of customers ordered by id
func (s *Store) ListCustomers(ctx context.Context, skip, limit int) ([]models.Customer, error) {
	customers := []models.Customer{}
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers ORDER BY id OFFSET $1 LIMIT $2", skip, limit)
	return customers, err
}

// UpdateCustomer overwrites the mutable customer fields
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, company = $3, phone = $4, address = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		c.Name, c.Email, c.Company, c.Phone, c.Address, c.Notes, c.ID,
	).Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("customer %d: %w", c.ID, ErrNotFound)
	}
	return err
}

// DeleteCustomer removes a customer and, by cascade, its orders
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return nil
}
