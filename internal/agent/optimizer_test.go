package agent

import (
	"context"
	"testing"

	"procurement-service/internal/models"
	"procurement-service/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(products ...models.Product) *models.SearchResult {
	return &models.SearchResult{Query: "q", Products: products, TotalFound: len(products)}
}

func TestOptimizeBreaksPriceTiesByRating(t *testing.T) {
	results := []*models.SearchResult{result(
		product("mock-pens", models.VendorMock, 8.99, floatPtr(4.5), true),
		product("other-pens", models.VendorStaples, 9.50, nil, true),
		product("other-pens-2", models.VendorCostco, 8.99, floatPtr(4.0), true),
	)}

	out := NewOptimizer().Optimize(context.Background(), results)

	require.Len(t, out.SelectedProducts, 1)
	assert.Equal(t, "mock-pens", out.SelectedProducts[0].ID)
	assert.Equal(t, 8.99, out.TotalCost)
	assert.Equal(t, 3, out.AlternativesConsidered)
}

func TestOptimizeFallsBackWhenNothingInStock(t *testing.T) {
	results := []*models.SearchResult{result(
		product("a", models.VendorMock, 7.00, nil, false),
		product("b", models.VendorMock, 3.00, nil, false),
	)}

	out := NewOptimizer().Optimize(context.Background(), results)

	require.Len(t, out.SelectedProducts, 1)
	assert.Equal(t, "b", out.SelectedProducts[0].ID)
}

func TestOptimizePrefersInStock(t *testing.T) {
	results := []*models.SearchResult{result(
		product("cheap-oos", models.VendorMock, 1.00, nil, false),
		product("in-stock", models.VendorMock, 5.00, nil, true),
	)}

	out := NewOptimizer().Optimize(context.Background(), results)

	assert.Equal(t, "in-stock", out.SelectedProducts[0].ID)
	assert.Equal(t, 2, out.AlternativesConsidered)
}

func TestOptimizeSkipsEmptyResults(t *testing.T) {
	results := []*models.SearchResult{
		result(),
		result(product("a", models.VendorMock, 2.50, nil, true)),
		result(product("b", models.VendorMock, 4.25, nil, true), product("c", models.VendorMock, 6, nil, true)),
	}

	out := NewOptimizer().Optimize(context.Background(), results)

	require.Len(t, out.SelectedProducts, 2)
	assert.InDelta(t, 6.75, out.TotalCost, 1e-9)
	assert.Equal(t, 3, out.AlternativesConsidered)
	require.NotNil(t, out.Savings)
	assert.InDelta(t, 1.75, *out.Savings, 1e-9)
}

func TestOptimizeEmpty(t *testing.T) {
	out := NewOptimizer().Optimize(context.Background(), nil)

	assert.Empty(t, out.SelectedProducts)
	assert.Equal(t, 0.0, out.TotalCost)
	assert.Equal(t, 0, out.AlternativesConsidered)
	assert.Nil(t, out.Savings)
}

func TestOptimizeSelectsCheapestAcrossManyResults(t *testing.T) {
	var results []*models.SearchResult
	for i := 1; i <= 5; i++ {
		results = append(results, result(
			product("x", models.VendorMock, float64(i)+0.5, floatPtr(5), true),
			product("y", models.VendorStaples, float64(i), floatPtr(1), true),
			product("z", models.VendorCostco, float64(i)+1, nil, true),
		))
	}

	out := NewOptimizer().Optimize(context.Background(), results)

	sum := 0.0
	for i, p := range out.SelectedProducts {
		assert.Equal(t, "y", p.ID)
		for _, candidate := range results[i].Products {
			assert.LessOrEqual(t, p.Price, candidate.Price)
		}
		sum += p.Price
	}
	assert.Equal(t, sum, out.TotalCost)
}

func TestOptimizeDoesNotReorderSearchResults(t *testing.T) {
	r := result(
		product("b", models.VendorMock, 9, nil, true),
		product("a", models.VendorMock, 1, nil, true),
	)

	NewOptimizer().Optimize(context.Background(), []*models.SearchResult{r})

	assert.Equal(t, "b", r.Products[0].ID)
}

func TestOptimizeWithPreferences(t *testing.T) {
	prefs := policy.NewPreferencesPolicy(
		[]models.VendorType{models.VendorStaples},
		nil,
		[]models.VendorType{models.VendorCostco},
		[]string{"NoName"},
	)

	tie := result(
		product("mock", models.VendorMock, 5, floatPtr(4), true),
		product("staples", models.VendorStaples, 5, floatPtr(4), true),
	)
	excluded := result(
		product("costco", models.VendorCostco, 1, nil, true),
		product("mock", models.VendorMock, 3, nil, true),
	)
	noname := product("brand", models.VendorMock, 1, nil, true)
	noname.Brand = strPtr("noname")
	brand := result(noname, product("plain", models.VendorMock, 2, nil, true))
	onlyExcluded := result(product("costco-only", models.VendorCostco, 4, nil, true))

	out := NewOptimizer().WithPreferences(prefs).Optimize(context.Background(),
		[]*models.SearchResult{tie, excluded, brand, onlyExcluded})

	require.Len(t, out.SelectedProducts, 4)
	assert.Equal(t, "staples", out.SelectedProducts[0].ID)
	assert.Equal(t, "mock", out.SelectedProducts[1].ID)
	assert.Equal(t, "plain", out.SelectedProducts[2].ID)
	assert.Equal(t, "costco-only", out.SelectedProducts[3].ID, "exclusion never empties the candidates")
}

func TestFindAlternatives(t *testing.T) {
	target := product("p1", models.VendorMock, 5, nil, true)
	results := []*models.SearchResult{
		result(
			target,
			product("p2", models.VendorMock, 1, nil, true),
			product("p3", models.VendorStaples, 7, nil, true),
		),
		result(
			product("p1", models.VendorCostco, 9, nil, true),
			product("p4", models.VendorCostco, 2, nil, true),
		),
	}

	alts := NewOptimizer().FindAlternatives(target, results)

	require.Len(t, alts, 2)
	assert.Equal(t, "p4", alts[0].ID)
	assert.Equal(t, "p3", alts[1].ID)
}
