package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// VendorType identifies a product source
type VendorType string

// Supported vendors
const (
	VendorAmazon  VendorType = "amazon"
	VendorStaples VendorType = "staples"
	VendorCostco  VendorType = "costco"
	VendorMock    VendorType = "mock"
)

// ParseVendorType converts a configured vendor name into a VendorType
func ParseVendorType(s string) (VendorType, bool) {
	switch v := VendorType(s); v {
	case VendorAmazon, VendorStaples, VendorCostco, VendorMock:
		return v, true
	}
	return "", false
}

// Product is a vendor listing. Products are never mutated after a vendor returns them.
type Product struct {
	ID          string     `json:"id" yaml:"id" validate:"required"`
	Name        string     `json:"name" yaml:"name" validate:"required"`
	Description *string    `json:"description,omitempty" yaml:"description"`
	Price       float64    `json:"price" yaml:"price" validate:"gt=0"`
	Vendor      VendorType `json:"vendor" yaml:"vendor" validate:"required"`
	URL         *string    `json:"url,omitempty" yaml:"url"`
	ImageURL    *string    `json:"image_url,omitempty" yaml:"image_url"`
	Rating      *float64   `json:"rating,omitempty" yaml:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount *int       `json:"review_count,omitempty" yaml:"review_count" validate:"omitempty,gte=0"`
	InStock     bool       `json:"in_stock" yaml:"in_stock"`
	Category    *string    `json:"category,omitempty" yaml:"category"`
	Brand       *string    `json:"brand,omitempty" yaml:"brand"`
}

// Validate checks the product invariants
func (p *Product) Validate() error {
	return validate.Struct(p)
}

// RatingOrZero returns the rating, treating a missing rating as 0
func (p *Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// DefaultMaxResults is the per-vendor result cap when a query does not set one
const DefaultMaxResults = 10

// SearchQuery is a single product search
type SearchQuery struct {
	Query            string       `json:"query" validate:"required"`
	Category         *string      `json:"category,omitempty"`
	MaxResults       int          `json:"max_results" validate:"gte=1,lte=50"`
	MinPrice         *float64     `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice         *float64     `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	PreferredVendors []VendorType `json:"preferred_vendors,omitempty"`
}

// NewSearchQuery returns a query with defaults applied
func NewSearchQuery(query string) SearchQuery {
	return SearchQuery{Query: query, MaxResults: DefaultMaxResults}
}

// Validate checks the query bounds
func (q *SearchQuery) Validate() error {
	return validate.Struct(q)
}

// SearchResult holds the merged products found for one query
type SearchResult struct {
	Query      string    `json:"query"`
	Products   []Product `json:"products"`
	TotalFound int       `json:"total_found"`
	SearchTime time.Time `json:"search_time"`
}

// OptimizationResult holds one selected product per search result that had candidates
type OptimizationResult struct {
	SelectedProducts       []Product `json:"selected_products"`
	TotalCost              float64   `json:"total_cost"`
	Savings                *float64  `json:"savings,omitempty"`
	AlternativesConsidered int       `json:"alternatives_considered"`
	OptimizationTime       time.Time `json:"optimization_time"`
}

// PurchaseRequest is what the purchaser is asked to buy
type PurchaseRequest struct {
	RunID            string    `json:"run_id,omitempty"`
	Products         []Product `json:"products"`
	TotalAmount      float64   `json:"total_amount"`
	RequiresApproval bool      `json:"requires_approval"`
	Notes            *string   `json:"notes,omitempty"`
}

// IdempotencyKey derives a stable key from the run, products and amount of the request.
// Requests of different runs never share a key.
func (r *PurchaseRequest) IdempotencyKey() string {
	parts := make([]string, 0, len(r.Products))
	for _, p := range r.Products {
		parts = append(parts, fmt.Sprintf("%s:%s", p.Vendor, p.ID))
	}
	sort.Strings(parts)

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.2f", r.RunID, strings.Join(parts, ","), r.TotalAmount)))
	return hex.EncodeToString(sum[:])
}

// PurchaseResult is the terminal artifact of a procurement run
type PurchaseResult struct {
	Success           bool      `json:"success"`
	OrderID           *string   `json:"order_id,omitempty"`
	ProductsPurchased []Product `json:"products_purchased"`
	TotalCost         float64   `json:"total_cost"`
	PurchaseTime      time.Time `json:"purchase_time"`
	ErrorMessage      *string   `json:"error_message,omitempty"`
}

// FailedPurchase builds an unsuccessful result carrying msg
func FailedPurchase(totalCost float64, msg string) *PurchaseResult {
	return &PurchaseResult{
		Success:           false,
		ProductsPurchased: []Product{},
		TotalCost:         totalCost,
		PurchaseTime:      time.Now(),
		ErrorMessage:      &msg,
	}
}

// ProcurementRequest is the entry point of the procurement pipeline
type ProcurementRequest struct {
	Items            []string       `json:"items" validate:"required,min=1,dive,required"`
	BudgetLimit      *float64       `json:"budget_limit,omitempty" validate:"omitempty,gte=0"`
	QuantityPerItem  map[string]int `json:"quantity_per_item,omitempty"`
	PreferredVendors []VendorType   `json:"preferred_vendors,omitempty"`
	RequireApproval  bool           `json:"require_approval"`
}

// Validate checks the request
func (r *ProcurementRequest) Validate() error {
	return validate.Struct(r)
}

// QuantityFor returns the requested quantity for item, defaulting to 1
func (r *ProcurementRequest) QuantityFor(item string) int {
	if q, ok := r.QuantityPerItem[item]; ok && q > 0 {
		return q
	}
	return 1
}

// ProcurementPlan summarizes what a run will do. It is informational only.
type ProcurementPlan struct {
	ItemsToProcure   []string `json:"items_to_procure"`
	SearchQueries    []string `json:"search_queries"`
	BudgetLimit      *float64 `json:"budget_limit"`
	RequiresApproval bool     `json:"requires_approval"`
}

// VendorPurchase is a vendor's response to a purchase call
type VendorPurchase struct {
	OrderID   *string    `json:"order_id,omitempty"`
	Status    string     `json:"status"`
	ProductID string     `json:"product_id"`
	Vendor    VendorType `json:"vendor"`
	Quantity  int        `json:"quantity"`
	TotalCost float64    `json:"total_cost"`
	URL       *string    `json:"url,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Vendor purchase statuses
const (
	VendorPurchaseSuccess          = "success"
	VendorPurchaseRedirectRequired = "redirect_required"
)
