// Package cost computes API spend from token usage.
package cost

import (
	"github.com/shopspring/decimal"

	"github.com/bkyoung/bookreviewer/internal/domain"
)

// defaultModel is the pricing fallback for models absent from the table.
const defaultModel = "gpt-4o"

// tokenPrice holds USD prices per 1000 tokens.
type tokenPrice struct {
	promptPerThousand     decimal.Decimal
	completionPerThousand decimal.Decimal
}

var thousand = decimal.NewFromInt(1000)

// modelPrices is the static per-model price table.
var modelPrices = map[string]tokenPrice{
	"gpt-4o": {
		promptPerThousand:     decimal.RequireFromString("0.01"),
		completionPerThousand: decimal.RequireFromString("0.01"),
	},
	"gpt-4o-mini": {
		promptPerThousand:     decimal.RequireFromString("0.005"),
		completionPerThousand: decimal.RequireFromString("0.005"),
	},
}

// Calculate prices a completion: promptTokens*promptPrice/1000 +
// completionTokens*completionPrice/1000, rounded half-up to 6 decimal places.
// Unknown or empty models use the default model's pricing.
func Calculate(model string, promptTokens, completionTokens int) domain.CostResult {
	price, ok := modelPrices[model]
	if !ok {
		price = modelPrices[defaultModel]
	}

	promptCost := price.promptPerThousand.
		Mul(decimal.NewFromInt(int64(promptTokens))).
		DivRound(thousand, 6)
	completionCost := price.completionPerThousand.
		Mul(decimal.NewFromInt(int64(completionTokens))).
		DivRound(thousand, 6)

	return domain.CostResult{
		TotalTokens: int64(promptTokens) + int64(completionTokens),
		USDCost:     promptCost.Add(completionCost).Round(6),
	}
}
