package usecase

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// alignEpsilon: a size difference below this is treated as already aligned.
var alignEpsilon = decimal.New(1, -10)

// PositionDiffer computes, per coin, the market trade that moves the target's
// position toward a scaled copy of the source's position.
type PositionDiffer struct {
	quantizer   *Quantizer
	mids        domain.MidPrices
	minNotional decimal.Decimal
}

func NewPositionDiffer(q *Quantizer, mids domain.MidPrices, minNotional decimal.Decimal) *PositionDiffer {
	return &PositionDiffer{quantizer: q, mids: mids, minNotional: minNotional}
}

// Diff walks the source positions (sorted, so plans are deterministic) and
// emits closes and market adjustments. Coins the target holds that the source
// has never held are reported as unmanaged and left alone; closing is only
// triggered when the source is explicitly flat, never by omission.
func (d *PositionDiffer) Diff(source, target *domain.AccountSnapshot, ratio decimal.Decimal) (
	closes []domain.ClosePositionAction,
	adjustments []domain.MarketOrderAction,
	unmanaged []string,
) {
	for _, coin := range sortedCoins(source.Positions) {
		spos := source.Positions[coin]
		tpos := target.PositionFor(coin)

		if spos.IsFlat() {
			if !tpos.IsFlat() {
				closes = append(closes, domain.ClosePositionAction{Coin: coin})
			}
			continue
		}

		desired := spos.Size.Mul(ratio)
		diff := desired.Sub(tpos.Size)
		if diff.Abs().LessThan(alignEpsilon) {
			continue
		}

		// diff is the signed size change: positive means buy, negative means
		// sell, whichever side either account is on.
		side := domain.SideBuy
		if diff.Sign() < 0 {
			side = domain.SideSell
		}

		amount := diff.Abs()
		reduceOnly := false
		if !tpos.IsFlat() && tpos.Size.Sign() != diff.Sign() {
			reduceOnly = true
			// Never flip through zero in one step: cap at the current holding
			// and let the next cycle open the other side if still desired.
			if amount.GreaterThan(tpos.Size.Abs()) {
				amount = tpos.Size.Abs()
			}
		}

		amount = d.quantizer.Size(coin, amount)
		if !amount.IsPositive() {
			continue
		}
		if mid, ok := d.mids[coin]; ok && amount.Mul(mid).LessThan(d.minNotional) {
			// Not worth the round trip.
			continue
		}

		adjustments = append(adjustments, domain.MarketOrderAction{
			Coin:       coin,
			Side:       side,
			Amount:     amount,
			ReduceOnly: reduceOnly,
		})
	}

	for _, coin := range sortedCoins(target.Positions) {
		tpos := target.Positions[coin]
		if tpos.IsFlat() {
			continue
		}
		if _, ok := source.Positions[coin]; !ok {
			unmanaged = append(unmanaged, coin)
		}
	}

	return closes, adjustments, unmanaged
}

func sortedCoins(positions map[string]domain.Position) []string {
	coins := make([]string, 0, len(positions))
	for c := range positions {
		coins = append(coins, c)
	}
	sort.Strings(coins)
	return coins
}
