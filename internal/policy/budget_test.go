package policy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestCheckBudgetUnconstrained(t *testing.T) {
	b := NewBudgetPolicy(nil)

	ok, msg := b.CheckBudget(1e9)
	assert.True(t, ok)
	assert.Empty(t, msg)
	assert.Nil(t, b.GetRemainingBudget())
}

func TestCheckBudgetRejectsOverLimit(t *testing.T) {
	b := NewBudgetPolicy(floatPtr(10.00))

	ok, msg := b.CheckBudget(12.99)
	assert.False(t, ok)
	assert.Contains(t, msg, "10.00")

	ok, _ = b.CheckBudget(10.00)
	assert.True(t, ok, "amount equal to the limit is admitted")
}

func TestRecordPurchaseAccumulates(t *testing.T) {
	b := NewBudgetPolicy(floatPtr(100))

	amounts := []float64{10, 25.5, 4.5}
	for _, a := range amounts {
		ok, _ := b.CheckBudget(a)
		require.True(t, ok)
		b.RecordPurchase(a)
	}

	assert.InDelta(t, 40.0, b.Spent(), 1e-9)

	ok, _ := b.CheckBudget(60)
	assert.True(t, ok)
	ok, _ = b.CheckBudget(60.01)
	assert.False(t, ok)

	remaining := b.GetRemainingBudget()
	require.NotNil(t, remaining)
	assert.InDelta(t, 60.0, *remaining, 1e-9)
}

func TestRemainingBudgetClampedAtZero(t *testing.T) {
	b := NewBudgetPolicy(floatPtr(5))
	b.RecordPurchase(8)

	remaining := b.GetRemainingBudget()
	require.NotNil(t, remaining)
	assert.Equal(t, 0.0, *remaining)
}

func TestResetBudget(t *testing.T) {
	b := NewBudgetPolicy(floatPtr(5))
	b.RecordPurchase(5)

	ok, _ := b.CheckBudget(1)
	assert.False(t, ok)

	b.ResetBudget()
	assert.Equal(t, 0.0, b.Spent())
	ok, _ = b.CheckBudget(1)
	assert.True(t, ok)
}

func TestLimitIsCopied(t *testing.T) {
	limit := 10.0
	b := NewBudgetPolicy(&limit)
	limit = 1

	ok, _ := b.CheckBudget(5)
	assert.True(t, ok)
}

func TestRecordPurchaseConcurrent(t *testing.T) {
	b := NewBudgetPolicy(nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RecordPurchase(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100.0, b.Spent())
}
