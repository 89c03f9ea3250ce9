package policy

import (
	"strings"

	"procurement-service/internal/models"
)

// Vendor preference scores. Lower is better.
const (
	ExcludedVendorScore = 999
	NeutralVendorScore  = 100
)

// PreferencesPolicy holds vendor and brand preference and exclusion lists
type PreferencesPolicy struct {
	preferredVendors []models.VendorType
	preferredBrands  []string
	excludedVendors  []models.VendorType
	excludedBrands   []string
}

// NewPreferencesPolicy creates a preferences policy. preferredVendors is ordered, most preferred first.
func NewPreferencesPolicy(
	preferredVendors []models.VendorType,
	preferredBrands []string,
	excludedVendors []models.VendorType,
	excludedBrands []string,
) *PreferencesPolicy {
	return &PreferencesPolicy{
		preferredVendors: preferredVendors,
		preferredBrands:  preferredBrands,
		excludedVendors:  excludedVendors,
		excludedBrands:   excludedBrands,
	}
}

func (p *PreferencesPolicy) IsVendorPreferred(vendor models.VendorType) bool {
	return indexOfVendor(p.preferredVendors, vendor) >= 0
}

func (p *PreferencesPolicy) IsVendorExcluded(vendor models.VendorType) bool {
	return indexOfVendor(p.excludedVendors, vendor) >= 0
}

// IsBrandPreferred matches brand case-insensitively. A nil or empty brand is never preferred.
func (p *PreferencesPolicy) IsBrandPreferred(brand *string) bool {
	return containsBrand(p.preferredBrands, brand)
}

// IsBrandExcluded matches brand case-insensitively. A nil or empty brand is never excluded.
func (p *PreferencesPolicy) IsBrandExcluded(brand *string) bool {
	return containsBrand(p.excludedBrands, brand)
}

// GetVendorPreferenceScore returns 999 for an excluded vendor, the vendor's
// position in the preferred list, or 100 for any other vendor.
func (p *PreferencesPolicy) GetVendorPreferenceScore(vendor models.VendorType) int {
	if p.IsVendorExcluded(vendor) {
		return ExcludedVendorScore
	}
	if i := indexOfVendor(p.preferredVendors, vendor); i >= 0 {
		return i
	}
	return NeutralVendorScore
}

func indexOfVendor(vendors []models.VendorType, vendor models.VendorType) int {
	for i, v := range vendors {
		if v == vendor {
			return i
		}
	}
	return -1
}

func containsBrand(brands []string, brand *string) bool {
	if brand == nil || *brand == "" {
		return false
	}
	for _, b := range brands {
		if strings.EqualFold(b, *brand) {
			return true
		}
	}
	return false
}
