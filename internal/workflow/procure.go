package workflow

import (
	"context"
	"fmt"

	"procurement-service/internal/agent"
	"procurement-service/internal/models"
	"procurement-service/internal/policy"
	"procurement-service/internal/util"
	"procurement-service/internal/vendor"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Pipeline stages reported through Run.OnStage
const (
	StageSearching  = "searching"
	StageOptimizing = "optimizing"
	StagePurchasing = "purchasing"
)

// Run wires externally constructed components for one procurement run.
// Budget may be nil; when set it must be the same instance the Purchaser checks against.
type Run struct {
	Planner   *agent.Planner
	Searcher  *agent.Searcher
	Optimizer *agent.Optimizer
	Purchaser *agent.Purchaser
	Budget    *policy.BudgetPolicy

	// OnStage, if set, is called as each stage starts
	OnStage func(ctx context.Context, stage string)
}

// Outcome exposes every intermediate artifact of a run
type Outcome struct {
	Plan          *models.ProcurementPlan
	SearchResults []*models.SearchResult
	Optimization  *models.OptimizationResult
	Request       *models.PurchaseRequest
	Result        *models.PurchaseResult
}

// Execute runs plan, search, optimize and purchase, then records a successful
// purchase into the budget. Business rejections are reported in Outcome.Result;
// an error is returned only for an invalid request or a cancelled context.
func (r Run) Execute(ctx context.Context, req *models.ProcurementRequest) (*Outcome, error) {
	ctx, span := util.StartSpan(ctx, "Workflow.Execute")
	defer span.End()

	logger := util.GetLogger()

	if err := req.Validate(); err != nil {
		util.FailSpan(span, err)
		return nil, fmt.Errorf("invalid procurement request: %w", err)
	}

	out := &Outcome{Plan: r.Planner.PlanProcurement(req)}
	queries := r.Planner.CreateSearchQueries(req)

	r.stage(ctx, StageSearching)
	out.SearchResults = r.Searcher.SearchMultiple(ctx, queries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.stage(ctx, StageOptimizing)
	out.Optimization = r.Optimizer.Optimize(ctx, out.SearchResults)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.stage(ctx, StagePurchasing)
	out.Request = r.Purchaser.CreatePurchaseRequest(out.Optimization)
	out.Result = r.Purchaser.ExecutePurchase(ctx, out.Request)

	if out.Result.Success && r.Budget != nil {
		r.Budget.RecordPurchase(out.Result.TotalCost)
	}

	span.SetAttributes(
		attribute.Bool("success", out.Result.Success),
		attribute.Float64("total_cost", out.Result.TotalCost),
	)
	logger.Info("Procurement run finished",
		zap.Strings("items", req.Items),
		zap.Int("selected", len(out.Optimization.SelectedProducts)),
		zap.Bool("success", out.Result.Success))

	return out, nil
}

func (r Run) stage(ctx context.Context, stage string) {
	if r.OnStage != nil {
		r.OnStage(ctx, stage)
	}
}

// ProcureOfficeEssentials runs the pipeline over vendors with the given policies,
// using the mock purchase backend and default vendor timeout. Any policy may be nil.
func ProcureOfficeEssentials(
	ctx context.Context,
	req *models.ProcurementRequest,
	vendors []vendor.Vendor,
	budget *policy.BudgetPolicy,
	approval *policy.ApprovalPolicy,
	preferences *policy.PreferencesPolicy,
) (*models.PurchaseResult, error) {
	optimizer := agent.NewOptimizer()
	if preferences != nil {
		optimizer = optimizer.WithPreferences(preferences)
	}

	run := Run{
		Planner:   agent.NewPlanner(),
		Searcher:  agent.NewSearcher(vendors, agent.DefaultVendorTimeout),
		Optimizer: optimizer,
		Purchaser: agent.NewPurchaser(budget, approval, nil),
		Budget:    budget,
	}

	out, err := run.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}
