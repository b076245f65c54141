package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_NormalizeAndValidate(t *testing.T) {
	addr := Address{Address1: " 1 Main St ", CountryCode: " DK ", Province: "Hovedstaden"}.Normalize()

	assert.Equal(t, "1 Main St", addr.Address1)
	assert.Equal(t, "dk", addr.CountryCode)
	assert.Equal(t, "hovedstaden", addr.Province)
	assert.NoError(t, addr.Validate())

	assert.Error(t, Address{CountryCode: "dk"}.Validate())
	assert.Error(t, Address{Address1: "x", CountryCode: "dnk"}.Validate())
}

func TestAddress_ValueScan(t *testing.T) {
	addr := Address{Address1: "1 Main St", City: "Copenhagen", CountryCode: "dk"}
	v, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, addr, scanned)

	empty, err := Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}
