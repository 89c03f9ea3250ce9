package policy

import (
	"fmt"
	"sync"
)

// BudgetPolicy tracks cumulative spend for one budget period against an optional limit.
// A nil limit means spend is unconstrained.
type BudgetPolicy struct {
	mu          sync.Mutex
	budgetLimit *float64
	spent       float64
}

// NewBudgetPolicy creates a budget policy
func NewBudgetPolicy(budgetLimit *float64) *BudgetPolicy {
	if budgetLimit != nil {
		limit := *budgetLimit
		budgetLimit = &limit
	}
	return &BudgetPolicy{budgetLimit: budgetLimit}
}

// CheckBudget admits amount iff spent+amount stays within the limit.
// On rejection the message names the limit that would be exceeded.
func (b *BudgetPolicy) CheckBudget(amount float64) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.budgetLimit == nil {
		return true, ""
	}

	if b.spent+amount > *b.budgetLimit {
		return false, fmt.Sprintf("Purchase would exceed budget limit of $%.2f", *b.budgetLimit)
	}

	return true, ""
}

// RecordPurchase adds amount to the running total. It must be called once per completed purchase.
func (b *BudgetPolicy) RecordPurchase(amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent += amount
}

// Spent returns the running total
func (b *BudgetPolicy) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

// BudgetLimit returns the configured limit, nil if unconstrained
func (b *BudgetPolicy) BudgetLimit() *float64 {
	if b.budgetLimit == nil {
		return nil
	}
	limit := *b.budgetLimit
	return &limit
}

// GetRemainingBudget returns limit-spent clamped at zero, nil if unconstrained
func (b *BudgetPolicy) GetRemainingBudget() *float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.budgetLimit == nil {
		return nil
	}

	remaining := *b.budgetLimit - b.spent
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// ResetBudget starts a new budget period
func (b *BudgetPolicy) ResetBudget() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent = 0
}
