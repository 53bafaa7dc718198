package services

import (
	"testing"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecFilter(t *testing.T) {
	filters, err := ParseSpecFilter(" color:red|blue , size:15,")
	require.NoError(t, err)
	assert.Equal(t, []models.SpecFilter{
		{Name: "color", Values: []string{"red", "blue"}},
		{Name: "size", Values: []string{"15"}},
	}, filters)

	filters, err = ParseSpecFilter("")
	require.NoError(t, err)
	assert.Nil(t, filters)

	for _, raw := range []string{"color", ":red", "color:", "color:|"} {
		_, err := ParseSpecFilter(raw)
		assert.ErrorIs(t, err, ErrInvalidSpecFilter, raw)
	}
}

func TestParsePriceRange(t *testing.T) {
	tests := []struct {
		raw      string
		min, max string
	}{
		{"100..500", "100", "500"},
		{"100..", "100", ""},
		{"..500", "", "500"},
		{"250", "250", "250"},
		{" 9.99 .. 19.99 ", "9.99", "19.99"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := ParsePriceRange(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, r)
			if tt.min == "" {
				assert.Nil(t, r.Min)
			} else {
				assert.True(t, r.Min.Equal(dec(tt.min)))
			}
			if tt.max == "" {
				assert.Nil(t, r.Max)
			} else {
				assert.True(t, r.Max.Equal(dec(tt.max)))
			}
		})
	}

	r, err := ParsePriceRange("  ")
	assert.NoError(t, err)
	assert.Nil(t, r)

	for _, raw := range []string{"..", "abc", "10..x", "500..100"} {
		_, err := ParsePriceRange(raw)
		assert.ErrorIs(t, err, ErrInvalidPriceFilter, raw)
	}
}

func TestParseIDList(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := ParseIDList(a.String() + ", " + b.String() + "," + a.String() + ",")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = ParseIDList("")
	assert.NoError(t, err)
	assert.Nil(t, ids)

	_, err = ParseIDList(a.String() + ",nope")
	assert.ErrorIs(t, err, ErrInvalidIDList)
}

func TestNormalizePage(t *testing.T) {
	limit, offset := NormalizePage(0, -3, 20, 100)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = NormalizePage(500, 40, 20, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 40, offset)
}

func TestGenerateSlug(t *testing.T) {
	tests := map[string]string{
		"Smart TV 55\"":         "smart-tv-55",
		"Холодильник Samsung":   "holodilnik-samsung",
		"Қазақстан шайы":        "qazaqstan-shayy",
		"Crème Brûlée":          "creme-brulee",
		"  --Already--slugged ": "already-slugged",
		"!!!":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, GenerateSlug(in), in)
	}

	long := GenerateSlug("word word word word word word word word word word word word")
	assert.LessOrEqual(t, len(long), 50)
	assert.True(t, IsValidSlug(long), long)
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("washing-machine-8kg"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("Upper-Case"))
	assert.False(t, IsValidSlug("double--dash"))
	assert.False(t, IsValidSlug("-leading"))
}
