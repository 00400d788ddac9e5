package domain

import "github.com/shopspring/decimal"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// TriggerKind distinguishes take-profit from stop-loss conditionals.
type TriggerKind string

const (
	TriggerTakeProfit TriggerKind = "tp"
	TriggerStopLoss   TriggerKind = "sl"
)

// ConditionalOrder is a TP/SL trigger order resting on the exchange. It only
// becomes active once the trigger price condition is met.
type ConditionalOrder struct {
	Coin         string
	Kind         TriggerKind
	TriggerPrice decimal.Decimal
	IsMarket     bool // market execution vs limit-at-trigger
	Size         decimal.Decimal
	OrderID      int64
}

// RestingOrder is a plain limit order working in the book, not conditional.
type RestingOrder struct {
	Coin       string
	Side       Side
	LimitPrice decimal.Decimal
	Size       decimal.Decimal
	OrderID    int64
}

// OrderResult is the outcome of a single placement call. Failures are carried
// in Err instead of an error return so that a plan executor can keep going
// past a failed action and hand the full list back to the caller.
type OrderResult struct {
	Coin    string          `json:"coin"`
	Side    Side            `json:"side,omitempty"`
	Size    decimal.Decimal `json:"size"`
	OrderID int64           `json:"order_id,omitempty"`
	Filled  bool            `json:"filled,omitempty"`
	Err     string          `json:"error,omitempty"`
}

func (r OrderResult) OK() bool { return r.Err == "" }

// CancelResult is the outcome of a single cancellation call.
type CancelResult struct {
	Coin    string `json:"coin"`
	OrderID int64  `json:"order_id"`
	Err     string `json:"error,omitempty"`
}

func (r CancelResult) OK() bool { return r.Err == "" }
