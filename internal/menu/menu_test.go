package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByID(t *testing.T) {
	it, ok := ByID(1)
	require.True(t, ok)
	assert.Equal(t, "Jollof Rice", it.Name)
	assert.True(t, it.Price.Equal(decimal.NewFromInt(2000)))

	_, ok = ByID(42)
	assert.False(t, ok)
	_, ok = ByID(0)
	assert.False(t, ok)
}

func TestItemsReturnsACopy(t *testing.T) {
	a := Items()
	a[0].Name = "mutated"
	b := Items()
	assert.Equal(t, "Jollof Rice", b[0].Name)
}

func TestCategoriesCoverWholeCatalog(t *testing.T) {
	cats := Categories()
	total := 0
	for _, its := range cats {
		total += len(its)
	}
	assert.Equal(t, len(Items()), total)

	names := CategoryNames()
	assert.Equal(t, len(cats), len(names))
	assert.Equal(t, "Main Dishes", names[0], "categories keep menu order")
}

func TestFormatNaira(t *testing.T) {
	cases := map[string]string{
		"0":        "₦0",
		"500":      "₦500",
		"2000":     "₦2,000",
		"1234567":  "₦1,234,567",
		"-1500":    "-₦1,500",
		"1999.6":   "₦2,000",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)
		assert.Equalf(t, want, FormatNaira(d), "FormatNaira(%s)", in)
	}
}
