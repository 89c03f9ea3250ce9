package agent

import (
	"context"
	"sort"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/policy"
	"procurement-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
)

// Optimizer selects the best product for each search result
type Optimizer struct {
	preferences *policy.PreferencesPolicy
}

// NewOptimizer creates an optimizer that ranks by price, then rating
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// WithPreferences returns an optimizer that also honors prefs. Excluded vendors and
// brands are dropped from the candidates unless nothing else remains, and ties left
// after price and rating go to the better vendor score, then to a preferred brand.
func (o *Optimizer) WithPreferences(prefs *policy.PreferencesPolicy) *Optimizer {
	return &Optimizer{preferences: prefs}
}

// Optimize picks one product per result that has products. In-stock products are
// preferred; when none are in stock every product stays a candidate.
func (o *Optimizer) Optimize(ctx context.Context, results []*models.SearchResult) *models.OptimizationResult {
	_, span := util.StartSpan(ctx, "Optimizer.Optimize")
	defer span.End()

	selected := make([]models.Product, 0, len(results))
	alternatives := 0
	totalCost := 0.0
	savings := 0.0

	for _, result := range results {
		if result == nil || len(result.Products) == 0 {
			continue
		}

		alternatives += len(result.Products)

		candidates := o.candidates(result.Products)
		o.rank(candidates)

		best := candidates[0]
		selected = append(selected, best)
		totalCost += best.Price
		savings += maxPrice(candidates) - best.Price
	}

	span.SetAttributes(
		attribute.Int("selected", len(selected)),
		attribute.Int("alternatives_considered", alternatives),
		attribute.Float64("total_cost", totalCost),
	)

	out := &models.OptimizationResult{
		SelectedProducts:       selected,
		TotalCost:              totalCost,
		AlternativesConsidered: alternatives,
		OptimizationTime:       time.Now(),
	}
	if len(selected) > 0 {
		out.Savings = &savings
	}
	return out
}

// FindAlternatives returns products from other vendors with a different id, cheapest first
func (o *Optimizer) FindAlternatives(product models.Product, results []*models.SearchResult) []models.Product {
	alternatives := make([]models.Product, 0)
	for _, result := range results {
		if result == nil {
			continue
		}
		for _, p := range result.Products {
			if p.ID != product.ID && p.Vendor != product.Vendor {
				alternatives = append(alternatives, p)
			}
		}
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Price < alternatives[j].Price
	})
	return alternatives
}

func (o *Optimizer) candidates(products []models.Product) []models.Product {
	inStock := filterProducts(products, func(p *models.Product) bool { return p.InStock })
	if len(inStock) == 0 {
		inStock = filterProducts(products, func(*models.Product) bool { return true })
	}

	if o.preferences == nil {
		return inStock
	}

	allowed := filterProducts(inStock, func(p *models.Product) bool {
		return !o.preferences.IsVendorExcluded(p.Vendor) && !o.preferences.IsBrandExcluded(p.Brand)
	})
	if len(allowed) == 0 {
		return inStock
	}
	return allowed
}

func (o *Optimizer) rank(candidates []models.Product) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if ra, rb := a.RatingOrZero(), b.RatingOrZero(); ra != rb {
			return ra > rb
		}
		if o.preferences == nil {
			return false
		}
		if sa, sb := o.preferences.GetVendorPreferenceScore(a.Vendor), o.preferences.GetVendorPreferenceScore(b.Vendor); sa != sb {
			return sa < sb
		}
		return o.preferences.IsBrandPreferred(a.Brand) && !o.preferences.IsBrandPreferred(b.Brand)
	})
}

func maxPrice(products []models.Product) float64 {
	max := 0.0
	for _, p := range products {
		if p.Price > max {
			max = p.Price
		}
	}
	return max
}
