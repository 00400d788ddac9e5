package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncAction is one executed (or attempted) exchange call within a cycle.
type SyncAction struct {
	ID      int64           `json:"id"`
	CycleID int64           `json:"cycle_id"`
	Kind    string          `json:"kind"` // place | cancel
	Coin    string          `json:"coin"`
	Side    Side            `json:"side,omitempty"`
	Size    decimal.Decimal `json:"size"`
	OrderID int64           `json:"order_id,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// SyncCycle is the persisted record of one reconciliation cycle.
type SyncCycle struct {
	ID              int64           `json:"id"`
	StartedAt       time.Time       `json:"started_at"`
	ScaleRatio      decimal.Decimal `json:"scale_ratio"`
	Executed        bool            `json:"executed"`
	OrdersPlaced    int             `json:"orders_placed"`
	OrdersCancelled int             `json:"orders_cancelled"`
	Errors          int             `json:"errors"`
	Actions         []SyncAction    `json:"actions,omitempty"`
}
