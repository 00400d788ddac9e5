package usecase

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

var (
	// Relative size tolerance for treating an existing order as "close enough".
	sizeTolerance = decimal.NewFromFloat(0.05)
	// Guard against a zero denominator when the desired size is tiny.
	toleranceGuard = decimal.New(1, -9)
)

// sizeWithinTolerance reports whether an existing order size is within 5%
// (relative to the desired size) of what we want.
func sizeWithinTolerance(existing, desired decimal.Decimal) bool {
	rel := existing.Sub(desired).Abs().Div(desired.Add(toleranceGuard))
	return rel.LessThanOrEqual(sizeTolerance)
}

// TriggerReconciler matches the source's TP/SL triggers against the target's
// existing ones and decides, per trigger, keep / recreate / cancel.
type TriggerReconciler struct {
	quantizer   *Quantizer
	mids        domain.MidPrices
	minNotional decimal.Decimal
	// matchRestingLimits enables the equivalence rule: a plain resting limit
	// order on the closing side, within one tick and 5% of a desired non-market
	// trigger, counts as already serving that trigger's purpose.
	matchRestingLimits bool
}

func NewTriggerReconciler(q *Quantizer, mids domain.MidPrices, minNotional decimal.Decimal, matchRestingLimits bool) *TriggerReconciler {
	return &TriggerReconciler{
		quantizer:          q,
		mids:               mids,
		minNotional:        minNotional,
		matchRestingLimits: matchRestingLimits,
	}
}

// TriggerPlan is the outcome of one reconciliation pass over all coins.
// Protected holds resting-order ids claimed by the equivalence rule; the
// open-order pass must not cancel them.
type TriggerPlan struct {
	Creates   []domain.CreateTriggerAction
	Cancels   []domain.CancelAction
	Protected map[int64]bool
}

func (r *TriggerReconciler) Reconcile(
	source, target *domain.AccountSnapshot,
	sourceTriggers, targetTriggers []domain.ConditionalOrder,
	targetResting []domain.RestingOrder,
) TriggerPlan {
	plan := TriggerPlan{Protected: make(map[int64]bool)}

	srcByCoin := groupTriggers(sourceTriggers)
	tgtByCoin := groupTriggers(targetTriggers)
	restByCoin := groupResting(targetResting)

	for _, coin := range sortedTriggerCoins(srcByCoin) {
		existing := tgtByCoin[coin]
		delete(tgtByCoin, coin)

		tpos := target.PositionFor(coin)
		spos := source.PositionFor(coin)
		if tpos.IsFlat() || spos.IsFlat() {
			// A trigger without a position is meaningless.
			for _, o := range existing {
				plan.Cancels = append(plan.Cancels, domain.CancelAction{Coin: coin, OrderID: o.OrderID})
			}
			continue
		}

		sizeRatio := tpos.Size.Abs().Div(spos.Size.Abs())
		closeSide := domain.SideSell
		if !tpos.IsLong() {
			closeSide = domain.SideBuy
		}

		tick := r.quantizer.Tick(coin)
		consumed := make([]bool, len(existing))

		for _, src := range srcByCoin[coin] {
			desiredSize := r.quantizer.Size(coin, src.Size.Mul(sizeRatio))
			desiredPx := r.quantizer.Price(coin, src.TriggerPrice)

			match := -1
			for i, e := range existing {
				if consumed[i] {
					continue
				}
				if e.Kind == src.Kind && e.IsMarket == src.IsMarket && withinTick(e.TriggerPrice, desiredPx, tick) {
					match = i
					break
				}
			}

			if match >= 0 {
				consumed[match] = true
				if sizeWithinTolerance(existing[match].Size, desiredSize) {
					continue // already correct
				}
				plan.Cancels = append(plan.Cancels, domain.CancelAction{
					Coin:    coin,
					OrderID: existing[match].OrderID,
				})
			}

			if !desiredSize.IsPositive() {
				continue
			}
			if mid, ok := r.mids[coin]; ok && desiredSize.Mul(mid).LessThan(r.minNotional) {
				continue
			}

			if r.matchRestingLimits && !src.IsMarket {
				if oid, ok := findRestingEquivalent(restByCoin[coin], closeSide, desiredPx, desiredSize, tick); ok {
					plan.Protected[oid] = true
					continue
				}
			}

			plan.Creates = append(plan.Creates, domain.CreateTriggerAction{
				Coin:         coin,
				Side:         closeSide, // always the reduce direction of the target position
				Kind:         src.Kind,
				Size:         desiredSize,
				TriggerPrice: desiredPx,
				IsMarket:     src.IsMarket,
			})
		}

		for i, e := range existing {
			if !consumed[i] {
				plan.Cancels = append(plan.Cancels, domain.CancelAction{Coin: coin, OrderID: e.OrderID})
			}
		}
	}

	return plan
}

// findRestingEquivalent looks for a plain limit order already doing the job
// of a desired trigger: right closing side, price within one tick, size
// within tolerance.
func findRestingEquivalent(orders []domain.RestingOrder, side domain.Side, px, size, tick decimal.Decimal) (int64, bool) {
	for _, o := range orders {
		if o.Side != side {
			continue
		}
		if !withinTick(o.LimitPrice, px, tick) {
			continue
		}
		if !sizeWithinTolerance(o.Size, size) {
			continue
		}
		return o.OrderID, true
	}
	return 0, false
}

func groupTriggers(orders []domain.ConditionalOrder) map[string][]domain.ConditionalOrder {
	out := make(map[string][]domain.ConditionalOrder)
	for _, o := range orders {
		out[o.Coin] = append(out[o.Coin], o)
	}
	return out
}

func groupResting(orders []domain.RestingOrder) map[string][]domain.RestingOrder {
	out := make(map[string][]domain.RestingOrder)
	for _, o := range orders {
		out[o.Coin] = append(out[o.Coin], o)
	}
	return out
}

func sortedTriggerCoins(m map[string][]domain.ConditionalOrder) []string {
	coins := make([]string, 0, len(m))
	for c := range m {
		coins = append(coins, c)
	}
	sort.Strings(coins)
	return coins
}
