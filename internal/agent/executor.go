package agent

import (
	"context"
	"fmt"
	"strings"

	"procurement-service/internal/models"
	"procurement-service/internal/util"
	"procurement-service/internal/vendor"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor places an admitted purchase and returns the resulting order id
type Executor interface {
	Execute(ctx context.Context, req *models.PurchaseRequest) (string, error)
}

// MockExecutor accepts every purchase without contacting a vendor
type MockExecutor struct{}

// NewMockExecutor creates a mock executor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// Execute returns a fresh PO-<uuid> order id
func (m *MockExecutor) Execute(ctx context.Context, req *models.PurchaseRequest) (string, error) {
	return fmt.Sprintf("PO-%s", uuid.New().String()), nil
}

// VendorExecutor buys each product from the vendor that listed it.
// Purchases already placed when a later one fails are not rolled back.
type VendorExecutor struct {
	vendors map[models.VendorType]vendor.Vendor
	logger  *zap.Logger
}

// NewVendorExecutor creates an executor over the given vendors
func NewVendorExecutor(vendors []vendor.Vendor) *VendorExecutor {
	byType := make(map[models.VendorType]vendor.Vendor, len(vendors))
	for _, v := range vendors {
		byType[v.Type()] = v
	}
	return &VendorExecutor{vendors: byType, logger: util.GetLogger()}
}

// Execute buys one unit of each product and returns the vendor order ids joined by ","
func (e *VendorExecutor) Execute(ctx context.Context, req *models.PurchaseRequest) (string, error) {
	orderIDs := make([]string, 0, len(req.Products))

	for _, p := range req.Products {
		v, ok := e.vendors[p.Vendor]
		if !ok {
			return "", fmt.Errorf("no vendor registered for %s", p.Vendor)
		}

		out, err := v.Purchase(ctx, p.ID, 1)
		if err != nil {
			e.logPartial(orderIDs, err)
			return "", fmt.Errorf("failed to purchase %s from %s: %w", p.ID, v.Name(), err)
		}

		if out.Status != models.VendorPurchaseSuccess || out.OrderID == nil {
			err := fmt.Errorf("%s did not complete purchase of %s: %s", v.Name(), p.ID, out.Status)
			e.logPartial(orderIDs, err)
			return "", err
		}

		orderIDs = append(orderIDs, *out.OrderID)
	}

	return strings.Join(orderIDs, ","), nil
}

func (e *VendorExecutor) logPartial(placed []string, err error) {
	if len(placed) == 0 {
		return
	}
	e.logger.Error("Purchase failed after vendor orders were placed",
		zap.Strings("placed_order_ids", placed),
		zap.Error(err))
}
