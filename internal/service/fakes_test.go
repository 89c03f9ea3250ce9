package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
)

// memRepo is an in-memory ProcurementRepository
type memRepo struct {
	mu        sync.Mutex
	customers map[int64]*models.Customer
	orders    map[int64]*models.Order
	items     map[int64][]models.OrderItem
	events    map[string]string
	statuses  []string
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		customers: map[int64]*models.Customer{},
		orders:    map[int64]*models.Order{},
		items:     map[int64][]models.OrderItem{},
		events:    map[string]string{},
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *memRepo) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", email, store.ErrNotFound)
}

func (r *memRepo) ListCustomers(ctx context.Context, skip, limit int) ([]models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, skip, limit), nil
}

func (r *memRepo) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return fmt.Errorf("customer %d: %w", c.ID, store.ErrNotFound)
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *memRepo) DeleteCustomer(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	delete(r.customers, id)
	return nil
}

func (r *memRepo) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	r.orders[order.ID] = &cp
	for i := range items {
		items[i].ID = r.id()
		items[i].OrderID = order.ID
	}
	r.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (r *memRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r *memRepo) ListOrders(ctx context.Context, customerID *int64, skip, limit int) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range r.orders {
		if customerID == nil || o.CustomerID == *customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, skip, limit), nil
}

func (r *memRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status string, notes sql.NullString) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	o.Status = status
	if notes.Valid {
		o.Notes = notes
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memRepo) CompleteOrder(ctx context.Context, orderID int64, status string, totalAmount float64, notes sql.NullString) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	o.Status = status
	o.TotalAmount = totalAmount
	if notes.Valid {
		o.Notes = notes
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memRepo) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OrderItem{}, r.items[orderID]...), nil
}

func (r *memRepo) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[item.OrderID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = *item
		}
	}
	return nil
}

func (r *memRepo) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[eventID]
	return ok, nil
}

func (r *memRepo) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[eventID] = eventType
	return nil
}

func (r *memRepo) order(id int64) models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.orders[id]
}

func page[T any](in []T, skip, limit int) []T {
	if skip >= len(in) {
		return []T{}
	}
	in = in[skip:]
	if limit < len(in) {
		in = in[:limit]
	}
	return in
}

type recordingPublisher struct {
	mu        sync.Mutex
	requested []*models.ProcurementRequestedEvent
	completed []*models.ProcurementCompletedEvent
	failed    []*models.ProcurementFailedEvent
	err       error
}

func (p *recordingPublisher) PublishProcurementRequested(ctx context.Context, e *models.ProcurementRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.requested = append(p.requested, e)
	return nil
}

func (p *recordingPublisher) PublishProcurementCompleted(ctx context.Context, e *models.ProcurementCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, e)
	return nil
}

func (p *recordingPublisher) PublishProcurementFailed(ctx context.Context, e *models.ProcurementFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, e)
	return nil
}

// memLocker grants a key to one holder at a time
type memLocker struct {
	mu       sync.Mutex
	held     map[string]string
	err      error
	released int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (l *memLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := fmt.Sprintf("token-%d", len(l.held)+l.released)
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		l.released++
	}
	return nil
}

func floatPtr64(v float64) *float64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}

// memClaims is an in-memory agent.IdempotencyStore
type memClaims struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (c *memClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = map[string]bool{}
	}
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}
