package catalog

import (
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShirt(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("Medusa T-Shirt", "")
	require.NoError(t, err)
	_, err = p.AddOption("Size", []string{"S", "M", "M", " "})
	require.NoError(t, err)
	_, err = p.AddOption("Color", []string{"Black", "White"})
	require.NoError(t, err)
	return p
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "medusa-t-shirt", Slugify("  Medusa T-Shirt! "))
	assert.Equal(t, "a-b", Slugify("a__b"))
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("Medusa T-Shirt", "")
	require.NoError(t, err)
	assert.Equal(t, "medusa-t-shirt", p.Handle)
	assert.Equal(t, ProductStatusDraft, p.Status)
	assert.False(t, p.IsPublished())

	_, err = NewProduct("", "Bad Handle")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}

func TestProduct_Update(t *testing.T) {
	p, err := NewProduct("Shirt", "")
	require.NoError(t, err)

	published := ProductStatusPublished
	title := "Better Shirt"
	require.NoError(t, p.Update(ProductUpdate{Title: &title, Status: &published}))
	assert.Equal(t, "Better Shirt", p.Title)
	assert.True(t, p.IsPublished())

	bogus := ProductStatus("archived")
	assert.Error(t, p.Update(ProductUpdate{Status: &bogus}))
}

func TestProduct_Options(t *testing.T) {
	p := newShirt(t)
	assert.Equal(t, []string{"S", "M"}, p.Options[0].Values)

	_, err := p.AddOption("size", []string{"L"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())

	v, err := p.AddVariant(VariantInput{Title: "S / Black", Options: map[string]string{"Size": "S", "Color": "Black"}})
	require.NoError(t, err)
	require.NoError(t, p.RemoveOption(p.Options[1].ID))
	got, ok := p.Variant(v.ID)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"Size": "S"}, got.Options)
	assert.True(t, shared.IsNotFound(p.RemoveOption(uuid.New())))
}

func TestProduct_Variants(t *testing.T) {
	p := newShirt(t)

	v, err := p.AddVariant(VariantInput{Title: "S / Black", SKU: "SHIRT-S-B", Options: map[string]string{"Size": "S", "Color": "Black"}})
	require.NoError(t, err)
	assert.Equal(t, p.ID, v.ProductID)

	t.Run("duplicate combination", func(t *testing.T) {
		_, err := p.AddVariant(VariantInput{Title: "dup", Options: map[string]string{"Size": "S", "Color": "Black"}})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, shared.IssueNotUnique, verr.Kind())
	})

	t.Run("duplicate sku", func(t *testing.T) {
		_, err := p.AddVariant(VariantInput{Title: "M", SKU: "shirt-s-b", Options: map[string]string{"Size": "M", "Color": "Black"}})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "sku", verr.Issues[0].Path)
	})

	t.Run("missing and unknown options", func(t *testing.T) {
		_, err := p.AddVariant(VariantInput{Title: "x", Options: map[string]string{"Size": "XL", "Fabric": "Silk"}})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.GreaterOrEqual(t, len(verr.Issues), 3)
	})

	t.Run("update keeps own combination", func(t *testing.T) {
		updated, err := p.UpdateVariant(v.ID, VariantInput{Title: "Small Black", SKU: "SHIRT-S-B", Options: map[string]string{"Size": "S", "Color": "Black"}})
		require.NoError(t, err)
		assert.Equal(t, "Small Black", updated.Title)
	})

	t.Run("removed variant frees its combination", func(t *testing.T) {
		require.NoError(t, p.RemoveVariant(v.ID))
		assert.Empty(t, p.ActiveVariants())
		_, err := p.AddVariant(VariantInput{Title: "again", Options: map[string]string{"Size": "S", "Color": "Black"}})
		assert.NoError(t, err)
	})
}

func TestProduct_SalesChannels(t *testing.T) {
	p, err := NewProduct("Shirt", "")
	require.NoError(t, err)
	channel := uuid.New()
	require.NoError(t, p.SetSalesChannels([]uuid.UUID{channel}))
	assert.True(t, p.AvailableIn(channel))
	assert.False(t, p.AvailableIn(uuid.New()))
	assert.Error(t, p.SetSalesChannels([]uuid.UUID{uuid.Nil}))
}
