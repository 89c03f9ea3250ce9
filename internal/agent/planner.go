package agent

import "procurement-service/internal/models"

// Planner turns a procurement request into search queries
type Planner struct{}

// NewPlanner creates a planner
func NewPlanner() *Planner {
	return &Planner{}
}

// CreateSearchQueries returns one query per requested item, carrying the request's preferred vendors
func (p *Planner) CreateSearchQueries(req *models.ProcurementRequest) []models.SearchQuery {
	queries := make([]models.SearchQuery, 0, len(req.Items))
	for _, item := range req.Items {
		q := models.NewSearchQuery(item)
		q.PreferredVendors = req.PreferredVendors
		queries = append(queries, q)
	}
	return queries
}

// PlanProcurement describes what a run for req would do
func (p *Planner) PlanProcurement(req *models.ProcurementRequest) *models.ProcurementPlan {
	queries := p.CreateSearchQueries(req)

	searches := make([]string, 0, len(queries))
	for _, q := range queries {
		searches = append(searches, q.Query)
	}

	return &models.ProcurementPlan{
		ItemsToProcure:   req.Items,
		SearchQueries:    searches,
		BudgetLimit:      req.BudgetLimit,
		RequiresApproval: req.RequireApproval,
	}
}
