package policy

import "sync"

// ApprovalPolicy decides whether an amount needs explicit sign-off.
//
// Amounts passed to Approve are kept as a ledger only; IsApproved does not
// consult it, so an amount above the threshold is never approved here.
type ApprovalPolicy struct {
	mu                sync.Mutex
	approvalThreshold *float64
	autoApprove       bool
	approvedAmounts   []float64
}

// NewApprovalPolicy creates an approval policy. A nil threshold never requires approval.
func NewApprovalPolicy(approvalThreshold *float64, autoApprove bool) *ApprovalPolicy {
	if approvalThreshold != nil {
		threshold := *approvalThreshold
		approvalThreshold = &threshold
	}
	return &ApprovalPolicy{
		approvalThreshold: approvalThreshold,
		autoApprove:       autoApprove,
	}
}

// RequiresApproval reports whether amount is above the threshold
func (a *ApprovalPolicy) RequiresApproval(amount float64) bool {
	if a.autoApprove {
		return false
	}
	if a.approvalThreshold == nil {
		return false
	}
	return amount > *a.approvalThreshold
}

// IsApproved reports whether a purchase of amount may proceed
func (a *ApprovalPolicy) IsApproved(amount float64) bool {
	if !a.RequiresApproval(amount) {
		return true
	}

	// TODO: replace with a keyed approve(requestID)/is_approved(requestID) workflow
	return false
}

// Approve appends amount to the approval ledger
func (a *ApprovalPolicy) Approve(amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.approvedAmounts = append(a.approvedAmounts, amount)
}

// ApprovedAmounts returns a copy of the approval ledger
func (a *ApprovalPolicy) ApprovedAmounts() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]float64, len(a.approvedAmounts))
	copy(out, a.approvedAmounts)
	return out
}

// ApprovalThreshold returns the threshold, nil if none
func (a *ApprovalPolicy) ApprovalThreshold() *float64 {
	if a.approvalThreshold == nil {
		return nil
	}
	threshold := *a.approvalThreshold
	return &threshold
}
