package customer

import (
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("Jane@Example.com", " Jane ", "Doe", "", true)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, "Jane", c.FirstName)

	_, err = NewCustomer("jane", "", "", "", false)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Issues[0].Path)
}

func TestCustomer_Addresses(t *testing.T) {
	c, err := NewCustomer("jane@example.com", "", "", "", true)
	require.NoError(t, err)

	first, err := c.AddAddress(Address{IsDefaultShipping: true, Address: valueobject.Address{Address1: "1 Road", CountryCode: "DK"}})
	require.NoError(t, err)
	firstID := first.ID
	second, err := c.AddAddress(Address{IsDefaultShipping: true, Address: valueobject.Address{Address1: "2 Road", CountryCode: "dk"}})
	require.NoError(t, err)

	assert.Equal(t, second.ID, c.DefaultShippingAddress().ID)
	assert.Equal(t, "dk", c.Addresses[0].CountryCode)

	_, err = c.AddAddress(Address{Address: valueobject.Address{CountryCode: "dk"}})
	assert.Error(t, err)

	require.NoError(t, c.RemoveAddress(firstID))
	assert.Len(t, c.Addresses, 1)
	assert.True(t, shared.IsNotFound(c.RemoveAddress(uuid.New())))
}
