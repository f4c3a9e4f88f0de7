package domain

import "github.com/shopspring/decimal"

// CostResult is the output of the token cost calculation.
type CostResult struct {
	TotalTokens int64
	USDCost     decimal.Decimal // non-negative, 6 decimal places
}

// DeleteReviewResult summarizes a completed review deletion. Deleted is
// always true once the record existed; DriveDeleted reports whether the
// remote artifact was actually removed.
type DeleteReviewResult struct {
	Deleted      bool
	DriveDeleted bool
	Warnings     []string
}
