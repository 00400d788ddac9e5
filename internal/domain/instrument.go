package domain

import "github.com/shopspring/decimal"

// InstrumentMeta defines the quantization granularity of one perp instrument.
// SizeDecimals comes straight from the exchange universe; PriceDecimals is
// derived from it (perp prices carry at most 6 significant decimals total).
type InstrumentMeta struct {
	SizeDecimals  int
	PriceDecimals int
}

// Tick is the smallest price increment the instrument can be quoted in.
func (m InstrumentMeta) Tick() decimal.Decimal {
	return decimal.New(1, int32(-m.PriceDecimals))
}

// MidPrices maps coin -> current mid price.
type MidPrices map[string]decimal.Decimal
