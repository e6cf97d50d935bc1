package remessa

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"R$ 1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567", "1234.567"},
		{"10", "10"},
		{"(10,00)", "-10"},
		{"-0,5", "-0.5"},
		{"1 500,75", "1500.75"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := parseAmount("dez reais")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"10/02/2024", "2024-02-10", "10022024", "2024-02-10T00:00:00Z", "45332"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), "%s: %s", in, got)
	}

	for _, in := range []string{"", "00000000", "0"} {
		got, err := parseDate(in)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	_, err := parseDate("31/02/2024")
	assert.Error(t, err)
}
