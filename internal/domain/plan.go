package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ClosePositionAction closes the target's whole position in a coin at market.
type ClosePositionAction struct {
	Coin string `json:"coin"`
}

// MarketOrderAction moves the target's position toward the scaled source size.
type MarketOrderAction struct {
	Coin       string          `json:"coin"`
	Side       Side            `json:"side"`
	Amount     decimal.Decimal `json:"amount"`
	ReduceOnly bool            `json:"reduce_only,omitempty"`
}

// CreateTriggerAction places a new TP/SL trigger on the target.
type CreateTriggerAction struct {
	Coin         string          `json:"coin"`
	Side         Side            `json:"side"`
	Kind         TriggerKind     `json:"kind"`
	Size         decimal.Decimal `json:"size"`
	TriggerPrice decimal.Decimal `json:"trigger_price"`
	IsMarket     bool            `json:"is_market"`
}

// CancelAction cancels an order that existed in the reconciled snapshot.
// Cancels are never speculative: OrderID always references a fetched order.
type CancelAction struct {
	Coin    string `json:"coin"`
	OrderID int64  `json:"order_id"`
}

// SyncPlan is the engine's sole output: the minimal set of actions that
// brings the target into alignment with the source. It is a value object,
// never mutated after construction, safe to log or discard.
type SyncPlan struct {
	ScaleRatio         decimal.Decimal       `json:"scale_ratio"`
	Closes             []ClosePositionAction `json:"closes"`
	MarketAdjustments  []MarketOrderAction   `json:"market_adjustments"`
	TriggersToCreate   []CreateTriggerAction `json:"triggers_to_create"`
	TriggersToCancel   []CancelAction        `json:"triggers_to_cancel"`
	OpenOrdersToCancel []CancelAction        `json:"open_orders_to_cancel"`
	// Unmanaged lists coins the target holds that the source has never held.
	// The engine leaves them alone; they are surfaced so an operator can decide.
	Unmanaged   []string  `json:"unmanaged,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IsEmpty reports whether the plan contains no actions at all.
func (p *SyncPlan) IsEmpty() bool {
	return len(p.Closes) == 0 &&
		len(p.MarketAdjustments) == 0 &&
		len(p.TriggersToCreate) == 0 &&
		len(p.TriggersToCancel) == 0 &&
		len(p.OpenOrdersToCancel) == 0
}

// ActionCount is the total number of exchange calls the plan will issue.
func (p *SyncPlan) ActionCount() int {
	return len(p.Closes) + len(p.MarketAdjustments) + len(p.TriggersToCreate) +
		len(p.TriggersToCancel) + len(p.OpenOrdersToCancel)
}

// Describe renders a human-readable summary for confirmation prompts and logs.
func (p *SyncPlan) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scale ratio (target/source): %s\n", p.ScaleRatio.StringFixed(4))

	if len(p.Closes) > 0 {
		b.WriteString("Close positions:\n")
		for _, c := range p.Closes {
			fmt.Fprintf(&b, "- %s (market)\n", c.Coin)
		}
	}
	if len(p.MarketAdjustments) > 0 {
		b.WriteString("Position adjustments (market):\n")
		for _, a := range p.MarketAdjustments {
			ro := ""
			if a.ReduceOnly {
				ro = " (reduce-only)"
			}
			fmt.Fprintf(&b, "- %s: %s %s%s\n", a.Coin, a.Side, a.Amount, ro)
		}
	}
	if len(p.TriggersToCreate) > 0 {
		b.WriteString("Create TP/SL triggers:\n")
		for _, t := range p.TriggersToCreate {
			mode := "limit"
			if t.IsMarket {
				mode = "market"
			}
			fmt.Fprintf(&b, "- %s: %s %s %s sz=%s trigger=%s\n",
				t.Coin, strings.ToUpper(string(t.Kind)), mode, t.Side, t.Size, t.TriggerPrice)
		}
	}
	if len(p.TriggersToCancel) > 0 {
		b.WriteString("Cancel triggers:\n")
		for _, c := range p.TriggersToCancel {
			fmt.Fprintf(&b, "- %s OID=%d\n", c.Coin, c.OrderID)
		}
	}
	if len(p.OpenOrdersToCancel) > 0 {
		b.WriteString("Cancel open orders:\n")
		for _, c := range p.OpenOrdersToCancel {
			fmt.Fprintf(&b, "- %s OID=%d\n", c.Coin, c.OrderID)
		}
	}
	if len(p.Unmanaged) > 0 {
		fmt.Fprintf(&b, "Unmanaged coins (held on target, never seen on source): %s\n",
			strings.Join(p.Unmanaged, ", "))
	}
	if p.IsEmpty() {
		b.WriteString("No changes needed.\n")
	}
	return b.String()
}
