package usecase

import (
	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// Quantizer rounds sizes and prices to the instrument's allowed granularity.
// Rounding always truncates toward zero, never up: a size that would round up
// could exceed what the account can actually trade.
//
// When metadata for a coin is missing the raw value passes through unchanged.
// Fail-open is deliberate: a metadata gap must not block the whole cycle, at
// the cost of the exchange possibly rejecting an order for an exotic coin.
type Quantizer struct {
	meta map[string]domain.InstrumentMeta
}

func NewQuantizer(meta map[string]domain.InstrumentMeta) *Quantizer {
	return &Quantizer{meta: meta}
}

func (q *Quantizer) Size(coin string, v decimal.Decimal) decimal.Decimal {
	m, ok := q.meta[coin]
	if !ok {
		return v
	}
	return v.Truncate(int32(m.SizeDecimals))
}

func (q *Quantizer) Price(coin string, v decimal.Decimal) decimal.Decimal {
	m, ok := q.meta[coin]
	if !ok {
		return v
	}
	return v.Truncate(int32(m.PriceDecimals))
}

// Tick returns the instrument's smallest price increment, or zero when
// metadata is missing (callers then require exact price equality).
func (q *Quantizer) Tick(coin string) decimal.Decimal {
	m, ok := q.meta[coin]
	if !ok {
		return decimal.Zero
	}
	return m.Tick()
}

// withinTick reports whether two prices agree within one tick (inclusive).
// A zero tick degrades to exact equality.
func withinTick(a, b, tick decimal.Decimal) bool {
	if tick.IsZero() {
		return a.Equal(b)
	}
	return a.Sub(b).Abs().LessThanOrEqual(tick)
}
