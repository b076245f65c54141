package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFhandle,title\nshirt,Shirt"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"handle", "title"}, p.Headers())
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("handle\n\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("handle;title\nshirt;Shirt"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Shirt", row.Get("title"))
	})
}

func TestParser_Header(t *testing.T) {
	p, err := NewParser(strings.NewReader(" Product_Handle , Variant_SKU \nshirt,SH-1"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	assert.Equal(t, []string{"product_handle", "variant_sku"}, p.Headers())
	assert.True(t, p.HasHeader("variant_sku"))
	assert.Equal(t, []string{"product_title"}, p.MissingHeaders("product_handle", "product_title"))
}

func TestParser_ReadAll(t *testing.T) {
	csv := "handle,title,price_usd\nshirt, Shirt ,10\n,,\nhoodie,Hoodie\n"
	p, err := NewParser(strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Shirt", rows[0].Get("title"))
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "", rows[1].Get("price_usd"))
	assert.Equal(t, []string{"price_usd"}, rows[0].Columns("price_"))

	_, err = p.ReadRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRow_Conversions(t *testing.T) {
	p, err := NewParser(strings.NewReader("flag,bad_flag,weight,bad_weight,price,bad_price,empty\nyes,maybe,120,-1,19.99,abc,"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	row, err := p.ReadRow()
	require.NoError(t, err)

	b, rowErr := row.Bool("flag", false)
	assert.Nil(t, rowErr)
	assert.True(t, b)

	b, rowErr = row.Bool("empty", true)
	assert.Nil(t, rowErr)
	assert.True(t, b)

	_, rowErr = row.Bool("bad_flag", false)
	require.NotNil(t, rowErr)
	assert.Equal(t, ErrCodeInvalidFormat, rowErr.Code)
	assert.Equal(t, "maybe", rowErr.Value)

	n, rowErr := row.Int("weight")
	assert.Nil(t, rowErr)
	assert.Equal(t, 120, n)

	_, rowErr = row.Int("bad_weight")
	assert.NotNil(t, rowErr)

	d, ok, rowErr := row.Decimal("price")
	assert.Nil(t, rowErr)
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("19.99")))

	_, ok, rowErr = row.Decimal("empty")
	assert.Nil(t, rowErr)
	assert.False(t, ok)

	_, _, rowErr = row.Decimal("bad_price")
	assert.NotNil(t, rowErr)

	rowErr = row.Required("empty")
	require.NotNil(t, rowErr)
	assert.Equal(t, ErrCodeRequiredField, rowErr.Code)
	assert.Equal(t, 2, rowErr.Row)
	assert.Nil(t, row.Required("flag"))
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	ec.Add(nil)
	for i := 0; i < 3; i++ {
		e := NewRowError(i+2, "variant_sku", ErrCodeDuplicateInFile, "duplicate")
		ec.Add(&e)
	}

	assert.Equal(t, 3, ec.Count())
	assert.Len(t, ec.Errors(), 2)
	assert.True(t, ec.Truncated())
	assert.Equal(t, "row 2, column 'variant_sku': duplicate", ec.Errors()[0].Error())
	assert.Equal(t, "row 5: bad", NewRowError(5, "", ErrCodeInvalidValue, "bad").Error())
}
