package partner

import (
	"testing"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer successfully", func(t *testing.T) {
		customer, err := NewCustomer("CUST001", "Test Customer")

		require.NoError(t, err)
		assert.Equal(t, "CUST001", customer.Code)
		assert.Equal(t, "Test Customer", customer.Name)
		assert.Equal(t, CustomerStatusActive, customer.Status)
		assert.True(t, customer.Lifetime.IsZero())
		assert.True(t, customer.HasIdentity())
		assert.Equal(t, 1, customer.GetVersion())
		assert.Empty(t, customer.PendingChanges())
	})

	t.Run("converts code to uppercase", func(t *testing.T) {
		customer, err := NewCustomer("cust003", "Test Customer")

		require.NoError(t, err)
		assert.Equal(t, "CUST003", customer.Code)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		customer, err := NewCustomer("", "Test Customer")

		assert.Error(t, err)
		assert.Nil(t, customer)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with invalid code characters", func(t *testing.T) {
		customer, err := NewCustomer("CUST@001", "Test Customer")

		assert.Error(t, err)
		assert.Nil(t, customer)
		assert.Contains(t, err.Error(), "can only contain")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCustomer("CUST001", "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
	})
}

func TestCustomer_SetLifetime(t *testing.T) {
	t.Run("records the change", func(t *testing.T) {
		customer, err := NewCustomer("CUST001", "Test Customer")
		require.NoError(t, err)

		customer.SetLifetime(decimal.NewFromInt(150))

		assert.True(t, customer.Lifetime.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, 2, customer.GetVersion())
		require.True(t, customer.PendingChanges().Has(CustomerFieldLifetime))
		change := customer.PendingChanges()[CustomerFieldLifetime]
		assert.True(t, change.Old.(decimal.Decimal).IsZero())
	})

	t.Run("same value is a no-op", func(t *testing.T) {
		customer, err := NewCustomer("CUST001", "Test Customer")
		require.NoError(t, err)

		customer.SetLifetime(decimal.RequireFromString("0.00"))

		assert.Equal(t, 1, customer.GetVersion())
		assert.Empty(t, customer.PendingChanges())
	})

	t.Run("keeps the stored value as old value across changes", func(t *testing.T) {
		customer, err := NewCustomer("CUST001", "Test Customer")
		require.NoError(t, err)

		customer.SetDerivedValue(decimal.NewFromInt(10))
		customer.SetDerivedValue(decimal.NewFromInt(20))

		change := customer.PendingChanges()[CustomerFieldLifetime]
		assert.True(t, change.Old.(decimal.Decimal).IsZero())
		assert.True(t, change.New.(decimal.Decimal).Equal(decimal.NewFromInt(20)))
		assert.True(t, customer.DerivedValue().Equal(decimal.NewFromInt(20)))
	})
}

func TestCustomer_SetEmail(t *testing.T) {
	customer, err := NewCustomer("CUST001", "Test Customer")
	require.NoError(t, err)

	require.NoError(t, customer.SetEmail(" Jane@Example.com "))
	assert.Equal(t, "jane@example.com", customer.Email)

	err = customer.SetEmail("not-an-email")
	assert.Error(t, err)
	assert.Equal(t, "jane@example.com", customer.Email)
}

func TestCustomer_Rename(t *testing.T) {
	customer, err := NewCustomer("CUST001", "Test Customer")
	require.NoError(t, err)

	require.NoError(t, customer.Rename("Renamed"))
	assert.Equal(t, "Renamed", customer.Name)
	assert.True(t, customer.PendingChanges().Has(CustomerFieldName))

	assert.Error(t, customer.Rename(""))
}

func TestCustomer_Deactivate(t *testing.T) {
	customer, err := NewCustomer("CUST001", "Test Customer")
	require.NoError(t, err)

	require.NoError(t, customer.Deactivate())
	assert.False(t, customer.IsActive())
	assert.Error(t, customer.Deactivate())
}

func TestCustomer_Detach(t *testing.T) {
	customer, err := NewCustomer("CUST001", "Test Customer")
	require.NoError(t, err)

	customer.Detach()

	assert.False(t, customer.HasIdentity())
}
