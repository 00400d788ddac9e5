package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketData defines the read side of the exchange: account state, orders,
// instrument metadata and mid prices. Implementations own transport,
// authentication and timeouts; the engine only sees typed values.
type MarketData interface {
	FetchAccountSnapshot(ctx context.Context, address string) (*AccountSnapshot, error)
	FetchConditionalOrders(ctx context.Context, address string) ([]ConditionalOrder, error)
	FetchRestingOrders(ctx context.Context, address string) ([]RestingOrder, error)
	FetchInstrumentMeta(ctx context.Context) (map[string]InstrumentMeta, error)
	FetchMidPrices(ctx context.Context) (MidPrices, error)
}

// Execution defines the write side of the exchange. Each call stands alone:
// failures come back inside the result value so a caller can keep issuing
// the remaining actions of a plan.
type Execution interface {
	PlaceMarketOrder(ctx context.Context, coin string, side Side, size decimal.Decimal, reduceOnly bool) OrderResult
	PlaceTriggerOrder(ctx context.Context, action CreateTriggerAction) OrderResult
	CancelOrder(ctx context.Context, coin string, orderID int64) CancelResult
	ClosePosition(ctx context.Context, coin string) OrderResult
}

// SyncRepository persists the history of executed sync cycles.
type SyncRepository interface {
	SaveCycle(ctx context.Context, cycle *SyncCycle) error
	ListCycles(ctx context.Context, limit int) ([]*SyncCycle, error)
	ListActions(ctx context.Context, cycleID int64) ([]SyncAction, error)
}
