package domain

import "github.com/shopspring/decimal"

// AccountSnapshot is one account's state as fetched from the exchange.
// It is built once per sync cycle and never mutated afterwards.
type AccountSnapshot struct {
	Address      string
	AccountValue decimal.Decimal
	Withdrawable decimal.Decimal
	MarginUsed   decimal.Decimal
	Positions    map[string]Position // keyed by coin
}

// Position is a signed perp position. Positive size = long, negative = short.
// A position with zero size is logically absent.
type Position struct {
	Coin          string
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Leverage      int
}

func (p Position) IsFlat() bool { return p.Size.IsZero() }

func (p Position) IsLong() bool { return p.Size.Sign() > 0 }

// PositionFor returns the position for a coin; a zero Position if absent.
func (s *AccountSnapshot) PositionFor(coin string) Position {
	if p, ok := s.Positions[coin]; ok {
		return p
	}
	return Position{Coin: coin}
}
