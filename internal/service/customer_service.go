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
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailTaken       = errors.New("email already registered")
)

// CustomerService handles customer business logic
type CustomerService struct {
	repo   CustomerRepository
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(repo CustomerRepository) *CustomerService {
	return &CustomerService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"required,email"`
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest changes only the fields that are set
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Email   *string `json:"email,omitempty" binding:"omitempty,email"`
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// CustomerResponse is the API view of a customer
type CustomerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   *string   `json:"company"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerResponse(c *models.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Company:   stringPtr(c.Company),
		Phone:     stringPtr(c.Phone),
		Address:   stringPtr(c.Address),
		Notes:     stringPtr(c.Notes),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CreateCustomer registers a customer; emails are unique
func (s *CustomerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.CreateCustomer")
	defer span.End()

	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}

	c := &models.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Company: nullString(req.Company),
		Phone:   nullString(req.Phone),
		Address: nullString(req.Address),
		Notes:   nullString(req.Notes),
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		util.FailSpan(span, err)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Customer created", zap.Int64("customer_id", c.ID))
	return toCustomerResponse(c), nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*CustomerResponse, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.GetCustomer")
	defer span.End()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// ListCustomers returns a page of customers
func (s *CustomerService) ListCustomers(ctx context.Context, skip, limit int) ([]*CustomerResponse, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.ListCustomers")
	defer span.End()

	customers, err := s.repo.ListCustomers(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	out := make([]*CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, toCustomerResponse(&customers[i]))
	}
	return out, nil
}

// UpdateCustomer applies a partial update
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *UpdateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.UpdateCustomer")
	defer span.End()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != c.Email {
		if err := s.ensureEmailFree(ctx, *req.Email, id); err != nil {
			return nil, err
		}
		c.Email = *req.Email
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Company != nil {
		c.Company = nullString(req.Company)
	}
	if req.Phone != nil {
		c.Phone = nullString(req.Phone)
	}
	if req.Address != nil {
		c.Address = nullString(req.Address)
	}
	if req.Notes != nil {
		c.Notes = nullString(req.Notes)
	}

	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return toCustomerResponse(c), nil
}

// DeleteCustomer removes a customer and its orders
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CustomerService.DeleteCustomer")
	defer span.End()

	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}

func (s *CustomerService) load(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := s.repo.GetCustomerByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ensureEmailFree fails with ErrEmailTaken if email belongs to a customer other than self
func (s *CustomerService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.repo.GetCustomerByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing.ID != self {
		return ErrEmailTaken
	}
	return nil
}
