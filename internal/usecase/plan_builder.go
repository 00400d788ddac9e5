package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// DefaultMinNotionalUSD is the floor below which a trade is not worth the
// round-trip cost and gets dropped from the plan.
var DefaultMinNotionalUSD = decimal.NewFromInt(5)

// PlanInput carries everything a plan is computed from. All of it is fetched
// before building; the builder itself performs no I/O.
type PlanInput struct {
	Source *domain.AccountSnapshot
	Target *domain.AccountSnapshot

	SourceTriggers []domain.ConditionalOrder
	TargetTriggers []domain.ConditionalOrder
	SourceResting  []domain.RestingOrder
	TargetResting  []domain.RestingOrder

	Meta map[string]domain.InstrumentMeta
	Mids domain.MidPrices
}

// PlanBuilder orchestrates scale calculation, position diffing and order
// reconciliation into one SyncPlan. Building is a pure function of the input:
// the same snapshots always produce a structurally identical plan.
type PlanBuilder struct {
	minNotional        decimal.Decimal
	matchRestingLimits bool
	timeNow            func() time.Time
}

func NewPlanBuilder(minNotional decimal.Decimal, matchRestingLimits bool) *PlanBuilder {
	if minNotional.IsZero() {
		minNotional = DefaultMinNotionalUSD
	}
	return &PlanBuilder{
		minNotional:        minNotional,
		matchRestingLimits: matchRestingLimits,
		timeNow:            time.Now,
	}
}

func (b *PlanBuilder) Build(in PlanInput) *domain.SyncPlan {
	quantizer := NewQuantizer(in.Meta)
	ratio := ScaleRatio(in.Source, in.Target)

	differ := NewPositionDiffer(quantizer, in.Mids, b.minNotional)
	closes, adjustments, unmanaged := differ.Diff(in.Source, in.Target, ratio)

	triggers := NewTriggerReconciler(quantizer, in.Mids, b.minNotional, b.matchRestingLimits)
	tp := triggers.Reconcile(in.Source, in.Target, in.SourceTriggers, in.TargetTriggers, in.TargetResting)

	openOrders := NewOpenOrderReconciler(quantizer)
	orderCancels := openOrders.Reconcile(in.SourceResting, in.TargetResting, tp.Protected)

	return &domain.SyncPlan{
		ScaleRatio:         ratio,
		Closes:             closes,
		MarketAdjustments:  adjustments,
		TriggersToCreate:   tp.Creates,
		TriggersToCancel:   tp.Cancels,
		OpenOrdersToCancel: orderCancels,
		Unmanaged:          unmanaged,
		GeneratedAt:        b.timeNow(),
	}
}
