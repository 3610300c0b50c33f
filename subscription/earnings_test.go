package subscription

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorToMajor(t *testing.T) {
	assert.True(t, decimal.NewFromFloat(10.00).Equal(MinorToMajor(1000)))
	assert.True(t, decimal.NewFromFloat(0.01).Equal(MinorToMajor(1)))
	assert.True(t, decimal.NewFromFloat(13.37).Equal(MinorToMajor(1337)))
}

func TestNetEarnings(t *testing.T) {
	// 1000 minor units at a 5% platform fee credits exactly 9.50
	assert.True(t, decimal.NewFromFloat(9.50).Equal(NetEarnings(1000)))
	assert.True(t, decimal.NewFromFloat(0.95).Equal(NetEarnings(100)))
}

func TestNetEarningsNoDrift(t *testing.T) {
	// repeated application over many small transactions must match the
	// closed-form total exactly
	const iterations = 10000
	const amountMinor = 137

	total := decimal.Zero
	for i := 0; i < iterations; i++ {
		total = total.Add(NetEarnings(amountMinor))
	}

	closedForm := NetEarnings(amountMinor).Mul(decimal.NewFromInt(iterations))
	assert.True(t, total.Equal(closedForm), "expected %s, got %s", closedForm, total)
}
