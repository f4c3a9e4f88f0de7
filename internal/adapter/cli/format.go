package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/bkyoung/bookreviewer/internal/domain"
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

// FormatUSD renders a USD amount with the full 6-digit scale, e.g. "$0.000600".
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(6)
}

// FormatKRW renders a KRW amount as whole won with thousands separators,
// e.g. "₩2,600". A nil amount renders as a dash.
func FormatKRW(amount *decimal.Decimal) string {
	if amount == nil {
		return "-"
	}
	return "₩" + groupThousands(amount.StringFixed(0))
}

// groupThousands inserts comma separators into a decimal integer string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// statusColor renders an integration status with its conventional color.
func statusColor(status domain.Status) string {
	switch status {
	case domain.StatusSuccess:
		return green(string(status))
	case domain.StatusSkipped:
		return yellow(string(status))
	case domain.StatusFailed:
		return red(string(status))
	default:
		return string(status)
	}
}
