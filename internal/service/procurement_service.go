package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-service/config"
	"procurement-service/internal/agent"
	"procurement-service/internal/models"
	"procurement-service/internal/policy"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
	"procurement-service/internal/vendor"
	"procurement-service/internal/workflow"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest = errors.New("invalid procurement request")
	ErrCustomerBusy   = errors.New("another procurement for this customer is in progress")
)

const (
	msgAccepted       = "Procurement request created and processing"
	msgPurchaseFailed = "Purchase failed"
	msgUnfilled       = "No matching products found"
	msgEnqueueFailed  = "Could not enqueue procurement"
	lockRetryInterval = 100 * time.Millisecond
)

// ProcurementService accepts procurement requests and runs them through the pipeline
type ProcurementService struct {
	repo          ProcurementRepository
	publisher     ProcurementPublisher
	locker        Locker
	vendors       []vendor.Vendor
	policy        config.PolicyConfig
	vendorTimeout time.Duration
	executor      agent.Executor
	cache         agent.SearchCache
	claims        agent.IdempotencyStore
	logger        *zap.Logger
}

// NewProcurementService creates a procurement service. Purchases go through the
// mock backend until UseExecutor is called.
func NewProcurementService(
	repo ProcurementRepository,
	publisher ProcurementPublisher,
	locker Locker,
	vendors []vendor.Vendor,
	policyCfg config.PolicyConfig,
	vendorTimeout time.Duration,
) *ProcurementService {
	return &ProcurementService{
		repo:          repo,
		publisher:     publisher,
		locker:        locker,
		vendors:       vendors,
		policy:        policyCfg,
		vendorTimeout: vendorTimeout,
		logger:        util.GetLogger(),
	}
}

// UseExecutor sets the purchase backend for subsequent runs
func (s *ProcurementService) UseExecutor(executor agent.Executor) {
	s.executor = executor
}

// UseSearchCache lets runs reuse vendor search results
func (s *ProcurementService) UseSearchCache(cache agent.SearchCache) {
	s.cache = cache
}

// UseIdempotency guards purchases against being executed twice
func (s *ProcurementService) UseIdempotency(claims agent.IdempotencyStore) {
	s.claims = claims
}

// CreateProcurementRequest represents a request to procure items for a customer
type CreateProcurementRequest struct {
	CustomerID       int64          `json:"customer_id" binding:"required"`
	Items            []string       `json:"items" binding:"required,min=1,dive,required"`
	BudgetLimit      *float64       `json:"budget_limit,omitempty" binding:"omitempty,gte=0"`
	QuantityPerItem  map[string]int `json:"quantity_per_item,omitempty"`
	PreferredVendors []string       `json:"preferred_vendors,omitempty"`
	PreferredBrands  []string       `json:"preferred_brands,omitempty"`
	Notes            *string        `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

// ProcurementResponse is returned when a request is accepted
type ProcurementResponse struct {
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProcurementRequest converts the API request into a pipeline request
func (r *CreateProcurementRequest) ToProcurementRequest() (*models.ProcurementRequest, error) {
	req := &models.ProcurementRequest{
		Items:           r.Items,
		BudgetLimit:     r.BudgetLimit,
		QuantityPerItem: r.QuantityPerItem,
	}
	for _, name := range r.PreferredVendors {
		v, ok := models.ParseVendorType(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("%w: unknown vendor %q", ErrInvalidRequest, name)
		}
		req.PreferredVendors = append(req.PreferredVendors, v)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// PlanProcurement describes what a run for req would do without running it
func (s *ProcurementService) PlanProcurement(ctx context.Context, req *CreateProcurementRequest) (*models.ProcurementPlan, error) {
	_, span := util.StartSpan(ctx, "ProcurementService.PlanProcurement")
	defer span.End()

	preq, err := req.ToProcurementRequest()
	if err != nil {
		return nil, err
	}
	if preq.BudgetLimit == nil {
		preq.BudgetLimit = s.defaultBudget()
	}
	return agent.NewPlanner().PlanProcurement(preq), nil
}

// CreateProcurement creates a pending order and enqueues it for processing
func (s *ProcurementService) CreateProcurement(ctx context.Context, req *CreateProcurementRequest) (*ProcurementResponse, error) {
	ctx, span := util.StartSpan(ctx, "ProcurementService.CreateProcurement")
	defer span.End()

	preq, err := req.ToProcurementRequest()
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	order := &models.Order{
		CustomerID: req.CustomerID,
		Status:     models.OrderStatusPending,
		Notes:      nullString(req.Notes),
	}
	if req.BudgetLimit != nil {
		order.BudgetLimit = sql.NullFloat64{Float64: *req.BudgetLimit, Valid: true}
	}

	items := make([]models.OrderItem, 0, len(preq.Items))
	for _, item := range preq.Items {
		items = append(items, models.OrderItem{
			ItemName:          item,
			RequestedQuantity: preq.QuantityFor(item),
			Status:            models.OrderItemStatusPending,
		})
	}

	if err := s.repo.CreateOrderWithItems(ctx, order, items); err != nil {
		util.FailSpan(span, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	span.SetAttributes(attribute.Int64("order_id", order.ID))

	event := &models.ProcurementRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProcurementRequested,
			Timestamp: time.Now(),
		},
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Request:         *preq,
		PreferredBrands: req.PreferredBrands,
	}

	if err := s.publisher.PublishProcurementRequested(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProcurementRequested event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		if err := s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusFailed,
			sql.NullString{String: msgEnqueueFailed, Valid: true}); err != nil {
			s.logger.Error("Failed to mark unqueued order failed",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to enqueue procurement: %w", err)
	}

	util.ProcurementsRequestedTotal.Inc()
	s.logger.Info("Procurement accepted",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.Strings("items", preq.Items))

	return &ProcurementResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		Message:   msgAccepted,
		CreatedAt: order.CreatedAt,
	}, nil
}

// HandleProcurementRequested processes a ProcurementRequested event at most once.
// A returned error leaves the event unmarked; the consumer retries the same message.
func (s *ProcurementService) HandleProcurementRequested(ctx context.Context, event *models.ProcurementRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "ProcurementService.HandleProcurementRequested")
	defer span.End()

	processed, err := s.repo.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := s.Process(ctx, event.OrderID, &event.Request, event.PreferredBrands); err != nil {
		util.FailSpan(span, err)
		return err
	}

	if err := s.repo.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// Process runs the pipeline for an order and stores the outcome. Business
// failures end the order as failed and return nil; an error means the run
// could not be carried out and may be retried.
func (s *ProcurementService) Process(ctx context.Context, orderID int64, req *models.ProcurementRequest, preferredBrands []string) error {
	ctx, span := util.StartSpan(ctx, "ProcurementService.Process")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", orderID))

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("Order not found, skipping", zap.Int64("order_id", orderID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if isTerminal(order.Status) {
		s.logger.Info("Order already finished, skipping",
			zap.Int64("order_id", orderID),
			zap.String("status", order.Status))
		return nil
	}

	release, err := s.lockCustomer(ctx, order.CustomerID)
	if errors.Is(err, ErrCustomerBusy) {
		s.fail(ctx, order, "Another procurement for this customer is in progress", "customer_busy")
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	s.setStatus(ctx, orderID, models.OrderStatusProcessing)

	run := s.newRun(orderID, req, preferredBrands)
	out, err := run.Execute(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.fail(ctx, order, fmt.Sprintf("Error: %v", err), "error")
		return nil
	}

	if !out.Result.Success {
		msg := msgPurchaseFailed
		if out.Result.ErrorMessage != nil {
			msg = *out.Result.ErrorMessage
		}
		s.fail(ctx, order, msg, failureReason(msg))
		return nil
	}

	return s.complete(ctx, order, out)
}

func (s *ProcurementService) newRun(orderID int64, req *models.ProcurementRequest, preferredBrands []string) workflow.Run {
	limit := req.BudgetLimit
	if limit == nil {
		limit = s.defaultBudget()
	}
	budget := policy.NewBudgetPolicy(limit)

	var threshold *float64
	if s.policy.RequireApprovalAbove > 0 {
		v := s.policy.RequireApprovalAbove
		threshold = &v
	}
	approval := policy.NewApprovalPolicy(threshold, s.policy.AutoApprove)

	brands := append(append([]string{}, s.policy.PreferredBrands...), preferredBrands...)
	prefs := policy.NewPreferencesPolicy(
		s.vendorTypes(s.policy.PreferredVendors),
		brands,
		s.vendorTypes(s.policy.ExcludedVendors),
		s.policy.ExcludedBrands,
	)

	searcher := agent.NewSearcher(s.vendors, s.vendorTimeout)
	if s.cache != nil {
		searcher.UseCache(s.cache)
	}

	purchaser := agent.NewPurchaser(budget, approval, s.executor)
	if s.claims != nil {
		purchaser.UseIdempotency(s.claims, fmt.Sprintf("order-%d", orderID))
	}

	return workflow.Run{
		Planner:   agent.NewPlanner(),
		Searcher:  searcher,
		Optimizer: agent.NewOptimizer().WithPreferences(prefs),
		Purchaser: purchaser,
		Budget:    budget,
		OnStage: func(ctx context.Context, stage string) {
			s.setStatus(ctx, orderID, stage)
		},
	}
}

// complete stores a successful run: order total, how each item was filled, and the event
func (s *ProcurementService) complete(ctx context.Context, order *models.Order, out *workflow.Outcome) error {
	items, err := s.repo.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	selected := out.Optimization.SelectedProducts
	next := 0
	for i := range items {
		item := &items[i]
		found := i < len(out.SearchResults) && out.SearchResults[i] != nil && len(out.SearchResults[i].Products) > 0
		if found && next < len(selected) {
			p := selected[next]
			next++
			item.ProductID = sql.NullString{String: p.ID, Valid: true}
			item.ProductName = sql.NullString{String: p.Name, Valid: true}
			item.Vendor = sql.NullString{String: string(p.Vendor), Valid: true}
			item.Price = sql.NullFloat64{Float64: p.Price, Valid: true}
			item.QuantityPurchased = 1
			item.Status = models.OrderItemStatusPurchased
		} else {
			item.Status = models.OrderItemStatusUnfilled
			item.Notes = sql.NullString{String: msgUnfilled, Valid: true}
		}
		if err := s.repo.UpdateOrderItem(ctx, item); err != nil {
			s.logger.Error("Failed to update order item",
				zap.Int64("order_item_id", item.ID),
				zap.Error(err))
		}
	}

	result := out.Result
	if err := s.repo.CompleteOrder(ctx, order.ID, models.OrderStatusCompleted, result.TotalCost, sql.NullString{}); err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}

	util.ProcurementsCompletedTotal.Inc()

	purchaseOrderID := ""
	if result.OrderID != nil {
		purchaseOrderID = *result.OrderID
	}
	s.logger.Info("Procurement completed",
		zap.Int64("order_id", order.ID),
		zap.String("purchase_order_id", purchaseOrderID),
		zap.Float64("total_cost", result.TotalCost))

	event := &models.ProcurementCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProcurementCompleted,
			Timestamp: time.Now(),
		},
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		PurchaseOrderID: purchaseOrderID,
		TotalCost:       result.TotalCost,
		Products:        result.ProductsPurchased,
	}
	if err := s.publisher.PublishProcurementCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProcurementCompleted event", zap.Error(err))
	}
	return nil
}

// fail ends the order as failed with msg as its notes and publishes the event
func (s *ProcurementService) fail(ctx context.Context, order *models.Order, msg, reason string) {
	util.ProcurementsFailedTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("Procurement failed",
		zap.Int64("order_id", order.ID),
		zap.String("reason", msg))

	if err := s.repo.CompleteOrder(ctx, order.ID, models.OrderStatusFailed, 0, sql.NullString{String: msg, Valid: true}); err != nil {
		s.logger.Error("Failed to mark order failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	items, err := s.repo.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to get order items", zap.Error(err))
	}
	for i := range items {
		items[i].Status = models.OrderItemStatusFailed
		if err := s.repo.UpdateOrderItem(ctx, &items[i]); err != nil {
			s.logger.Error("Failed to update order item", zap.Int64("order_item_id", items[i].ID), zap.Error(err))
		}
	}

	event := &models.ProcurementFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProcurementFailed,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Reason:     msg,
	}
	if err := s.publisher.PublishProcurementFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProcurementFailed event", zap.Error(err))
	}
}

func (s *ProcurementService) setStatus(ctx context.Context, orderID int64, status string) {
	if err := s.repo.UpdateOrderStatus(ctx, orderID, status, sql.NullString{}); err != nil {
		s.logger.Error("Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("status", status),
			zap.Error(err))
	}
}

// lockCustomer serializes runs of one customer, waiting up to the lock TTL
func (s *ProcurementService) lockCustomer(ctx context.Context, customerID int64) (func(), error) {
	key := fmt.Sprintf("procurement:customer:%d", customerID)
	ttl := s.policy.CustomerLockTTL
	deadline := time.Now().Add(ttl)

	for {
		token, ok, err := s.locker.AcquireLock(ctx, key, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
		}
		if ok {
			return func() {
				if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
					s.logger.Warn("Failed to release customer lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrCustomerBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *ProcurementService) defaultBudget() *float64 {
	if s.policy.DefaultBudgetLimit <= 0 {
		return nil
	}
	v := s.policy.DefaultBudgetLimit
	return &v
}

func (s *ProcurementService) vendorTypes(names []string) []models.VendorType {
	out := make([]models.VendorType, 0, len(names))
	for _, name := range names {
		v, ok := models.ParseVendorType(strings.ToLower(name))
		if !ok {
			s.logger.Warn("Ignoring unknown vendor in policy", zap.String("vendor", name))
			continue
		}
		out = append(out, v)
	}
	return out
}

func isTerminal(status string) bool {
	switch status {
	case models.OrderStatusCompleted, models.OrderStatusFailed, models.OrderStatusCancelled:
		return true
	}
	return false
}

// failureReason maps a rejection message to a metric label
func failureReason(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Purchase would exceed budget"):
		return "budget"
	case msg == agent.MsgApprovalRequired:
		return "approval"
	case msg == agent.MsgNothingToPurchase:
		return "no_products"
	case msg == agent.MsgDuplicatePurchase:
		return "duplicate"
	case msg == agent.MsgIdempotencyFailure:
		return "idempotency"
	default:
		return "execution"
	}
}
