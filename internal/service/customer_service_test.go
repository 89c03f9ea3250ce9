package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomer(t *testing.T) {
	svc := NewCustomerService(newMemRepo())

	resp, err := svc.CreateCustomer(context.Background(), &CreateCustomerRequest{
		Name:    "Jane Smith",
		Email:   "jane@example.com",
		Company: strPtr("Tech Solutions Inc"),
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Tech Solutions Inc", *resp.Company)
	assert.Nil(t, resp.Phone)
}

func TestCreateCustomerDuplicateEmail(t *testing.T) {
	svc := NewCustomerService(newMemRepo())
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "B", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateCustomerPartial(t *testing.T) {
	svc := NewCustomerService(newMemRepo())
	ctx := context.Background()

	created, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{
		Name:  "Jane",
		Email: "jane@example.com",
		Phone: strPtr("555-0100"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateCustomer(ctx, created.ID, &UpdateCustomerRequest{Name: strPtr("Jane Smith")})
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.Equal(t, "jane@example.com", updated.Email)
	assert.Equal(t, "555-0100", *updated.Phone)
}

func TestUpdateCustomerEmailTaken(t *testing.T) {
	svc := NewCustomerService(newMemRepo())
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	_, err = svc.UpdateCustomer(ctx, b.ID, &UpdateCustomerRequest{Email: strPtr("a@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	same, err := svc.UpdateCustomer(ctx, b.ID, &UpdateCustomerRequest{Email: strPtr("b@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", same.Email)
}

func TestCustomerNotFound(t *testing.T) {
	svc := NewCustomerService(newMemRepo())
	ctx := context.Background()

	_, err := svc.GetCustomer(ctx, 42)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.UpdateCustomer(ctx, 42, &UpdateCustomerRequest{})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.ErrorIs(t, svc.DeleteCustomer(ctx, 42), ErrCustomerNotFound)
}

func TestListCustomersPages(t *testing.T) {
	svc := NewCustomerService(newMemRepo())
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: email, Email: email})
		require.NoError(t, err)
	}

	got, err := svc.ListCustomers(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b@example.com", got[0].Email)
}
