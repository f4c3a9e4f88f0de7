package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_GPT4o(t *testing.T) {
	result := Calculate("gpt-4o", 50, 10)

	assert.Equal(t, int64(60), result.TotalTokens)
	assert.Equal(t, "0.0006", result.USDCost.String())
	assert.Equal(t, "0.000600", result.USDCost.StringFixed(6))
}

func TestCalculate_GPT4oMini(t *testing.T) {
	result := Calculate("gpt-4o-mini", 1000, 1000)

	assert.Equal(t, int64(2000), result.TotalTokens)
	assert.Equal(t, "0.010000", result.USDCost.StringFixed(6))
}

func TestCalculate_UnknownModelUsesDefaultPricing(t *testing.T) {
	known := Calculate("gpt-4o", 100, 100)
	unknown := Calculate("some-future-model", 100, 100)

	assert.True(t, known.USDCost.Equal(unknown.USDCost))
}

func TestCalculate_EmptyModelUsesDefaultPricing(t *testing.T) {
	result := Calculate("", 50, 10)

	assert.Equal(t, "0.000600", result.USDCost.StringFixed(6))
}

func TestCalculate_ZeroTokens(t *testing.T) {
	result := Calculate("gpt-4o", 0, 0)

	assert.Equal(t, int64(0), result.TotalTokens)
	assert.True(t, result.USDCost.IsZero())
}

func TestCalculate_RoundsHalfUpToSixPlaces(t *testing.T) {
	// 1 prompt token at 0.005/1000 = 0.000005 exactly; 1 completion token
	// pushes the sum to 0.00001.
	result := Calculate("gpt-4o-mini", 1, 1)

	assert.Equal(t, "0.000010", result.USDCost.StringFixed(6))
}
