package agent

import (
	"context"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/policy"
	"procurement-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Rejection messages
const (
	MsgApprovalRequired   = "Purchase requires approval"
	MsgNothingToPurchase  = "No products available to purchase"
	MsgDuplicatePurchase  = "Duplicate purchase request"
	MsgIdempotencyFailure = "Could not verify purchase idempotency"
	msgExecutionFailed    = "Purchase execution failed: "
)

// DefaultIdempotencyTTL is how long a claimed purchase key blocks a repeat
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore claims a key once; later claims of the same key report false
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Purchaser gates and executes purchases. It never records spend into the budget;
// that is left to the caller after a successful result.
type Purchaser struct {
	budget      *policy.BudgetPolicy
	approval    *policy.ApprovalPolicy
	executor    Executor
	idempotency IdempotencyStore
	runID       string
	logger      *zap.Logger
}

// NewPurchaser creates a purchaser. budget and approval may be nil; a nil executor uses MockExecutor.
func NewPurchaser(budget *policy.BudgetPolicy, approval *policy.ApprovalPolicy, executor Executor) *Purchaser {
	if executor == nil {
		executor = NewMockExecutor()
	}
	return &Purchaser{
		budget:   budget,
		approval: approval,
		executor: executor,
		logger:   util.GetLogger(),
	}
}

// UseIdempotency guards execution with store. runID identifies the procurement run
// (e.g. its order); only a repeat of the same run is rejected as a duplicate.
func (p *Purchaser) UseIdempotency(store IdempotencyStore, runID string) {
	p.idempotency = store
	p.runID = runID
}

// CreatePurchaseRequest builds the request; RequiresApproval is decided here and only here
func (p *Purchaser) CreatePurchaseRequest(opt *models.OptimizationResult) *models.PurchaseRequest {
	requiresApproval := false
	if p.approval != nil {
		requiresApproval = p.approval.RequiresApproval(opt.TotalCost)
	}

	return &models.PurchaseRequest{
		RunID:            p.runID,
		Products:         opt.SelectedProducts,
		TotalAmount:      opt.TotalCost,
		RequiresApproval: requiresApproval,
	}
}

// CanPurchase checks the budget first and stops there on rejection, then approval
func (p *Purchaser) CanPurchase(req *models.PurchaseRequest) (bool, string) {
	if p.budget != nil {
		if ok, msg := p.budget.CheckBudget(req.TotalAmount); !ok {
			return false, msg
		}
	}

	if req.RequiresApproval && p.approval != nil {
		if !p.approval.IsApproved(req.TotalAmount) {
			return false, MsgApprovalRequired
		}
	}

	return true, ""
}

// ExecutePurchase re-validates req and executes it. Rejections keep the requested
// amount as TotalCost and purchase nothing.
func (p *Purchaser) ExecutePurchase(ctx context.Context, req *models.PurchaseRequest) *models.PurchaseResult {
	ctx, span := util.StartSpan(ctx, "Purchaser.ExecutePurchase")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("total_amount", req.TotalAmount),
		attribute.Bool("requires_approval", req.RequiresApproval),
	)

	if ok, msg := p.CanPurchase(req); !ok {
		reason := "budget"
		if msg == MsgApprovalRequired {
			reason = "approval"
		}
		util.PurchasesRejectedTotal.WithLabelValues(reason).Inc()
		p.logger.Warn("Purchase rejected",
			zap.Float64("total_amount", req.TotalAmount),
			zap.String("reason", msg))
		return models.FailedPurchase(req.TotalAmount, msg)
	}

	if len(req.Products) == 0 {
		util.PurchasesRejectedTotal.WithLabelValues("no_products").Inc()
		return models.FailedPurchase(req.TotalAmount, MsgNothingToPurchase)
	}

	if p.idempotency != nil {
		key := req.IdempotencyKey()
		claimed, err := p.idempotency.Claim(ctx, key, DefaultIdempotencyTTL)
		if err != nil {
			util.FailSpan(span, err)
			p.logger.Error("Idempotency claim failed", zap.String("key", key), zap.Error(err))
			return models.FailedPurchase(req.TotalAmount, MsgIdempotencyFailure)
		}
		if !claimed {
			util.PurchasesRejectedTotal.WithLabelValues("duplicate").Inc()
			p.logger.Warn("Duplicate purchase request", zap.String("key", key))
			return models.FailedPurchase(req.TotalAmount, MsgDuplicatePurchase)
		}
	}

	util.PurchaseAttemptsTotal.Inc()

	orderID, err := p.executor.Execute(ctx, req)
	if err != nil {
		util.FailSpan(span, err)
		util.PurchasesRejectedTotal.WithLabelValues("vendor").Inc()
		p.logger.Error("Purchase execution failed", zap.Error(err))
		return models.FailedPurchase(req.TotalAmount, msgExecutionFailed+err.Error())
	}

	util.PurchaseAmount.Observe(req.TotalAmount)
	p.logger.Info("Purchase completed",
		zap.String("order_id", orderID),
		zap.Int("products", len(req.Products)),
		zap.Float64("total_cost", req.TotalAmount))

	purchased := make([]models.Product, len(req.Products))
	copy(purchased, req.Products)

	return &models.PurchaseResult{
		Success:           true,
		OrderID:           &orderID,
		ProductsPurchased: purchased,
		TotalCost:         req.TotalAmount,
		PurchaseTime:      time.Now(),
	}
}
