package usecase

import (
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// OpenOrderReconciler cancels target resting orders that have no counterpart
// on the source. Matching is by (side, price within one tick, size within 5%).
type OpenOrderReconciler struct {
	quantizer *Quantizer
}

func NewOpenOrderReconciler(q *Quantizer) *OpenOrderReconciler {
	return &OpenOrderReconciler{quantizer: q}
}

// Reconcile returns the cancels for every unmatched target resting order,
// skipping ids the trigger pass claimed via the equivalence rule.
func (r *OpenOrderReconciler) Reconcile(
	sourceResting, targetResting []domain.RestingOrder,
	protected map[int64]bool,
) []domain.CancelAction {
	srcByCoin := groupResting(sourceResting)

	var cancels []domain.CancelAction
	for _, o := range targetResting {
		if protected[o.OrderID] {
			continue
		}
		tick := r.quantizer.Tick(o.Coin)
		px := r.quantizer.Price(o.Coin, o.LimitPrice)

		matched := false
		for _, s := range srcByCoin[o.Coin] {
			if s.Side != o.Side {
				continue
			}
			if !withinTick(px, r.quantizer.Price(o.Coin, s.LimitPrice), tick) {
				continue
			}
			if !sizeWithinTolerance(o.Size, s.Size) {
				continue
			}
			matched = true
			break
		}
		if !matched {
			cancels = append(cancels, domain.CancelAction{Coin: o.Coin, OrderID: o.OrderID})
		}
	}
	return cancels
}
