package usecase

import (
	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

var one = decimal.NewFromInt(1)

// ScaleRatio derives the capital-scaling ratio between target and source.
// Two candidates are considered: account value ratio and withdrawable ratio,
// each only defined when the source side is positive. The minimum of the
// defined candidates wins (the more conservative sizing), clamped to 1.
//
// If neither candidate is defined the ratio is zero: an undetermined source
// means "do not scale up", never "copy 1:1".
func ScaleRatio(source, target *domain.AccountSnapshot) decimal.Decimal {
	var ratio decimal.Decimal
	defined := false

	if source.AccountValue.IsPositive() {
		ratio = target.AccountValue.Div(source.AccountValue)
		defined = true
	}
	if source.Withdrawable.IsPositive() {
		c := target.Withdrawable.Div(source.Withdrawable)
		if !defined || c.LessThan(ratio) {
			ratio = c
		}
		defined = true
	}

	if !defined || ratio.IsNegative() {
		return decimal.Zero
	}
	if ratio.GreaterThan(one) {
		return one
	}
	return ratio
}
