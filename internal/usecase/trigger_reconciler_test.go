package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vitos/hyper_copy_trade/internal/domain"
	"github.com/vitos/hyper_copy_trade/internal/usecase"
)

func newTriggerReconciler(matchRestingLimits bool) *usecase.TriggerReconciler {
	mids := domain.MidPrices{"BTC": decimal.RequireFromString("50000")}
	return usecase.NewTriggerReconciler(
		usecase.NewQuantizer(testMeta()),
		mids,
		decimal.RequireFromString("5"),
		matchRestingLimits,
	)
}

func trigger(coin string, kind domain.TriggerKind, px, size string, isMarket bool, oid int64) domain.ConditionalOrder {
	return domain.ConditionalOrder{
		Coin:         coin,
		Kind:         kind,
		TriggerPrice: decimal.RequireFromString(px),
		IsMarket:     isMarket,
		Size:         decimal.RequireFromString(size),
		OrderID:      oid,
	}
}

func TestTriggerReconcileCreatesMissingTrigger(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "0.5"})
	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "1.0", true, 1)}

	plan := r.Reconcile(source, target, src, nil, nil)

	if len(plan.Cancels) != 0 {
		t.Fatalf("cancels = %v, want none", plan.Cancels)
	}
	if len(plan.Creates) != 1 {
		t.Fatalf("creates = %v, want 1", plan.Creates)
	}
	c := plan.Creates[0]
	if c.Kind != domain.TriggerTakeProfit || !c.IsMarket {
		t.Errorf("kind/mode wrong: %+v", c)
	}
	// Sized by the actual position ratio (0.5/1.0), not the capital ratio.
	if !c.Size.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("size = %s, want 0.5", c.Size)
	}
	if c.Side != domain.SideSell {
		t.Errorf("side = %s, want SELL (exit of a long)", c.Side)
	}
}

func TestTriggerReconcileKeepsCloseEnoughMatch(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "1.0", true, 1)}
	// Price one tick off, size within 5%: good enough, keep it.
	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000.1", "0.97", true, 2)}

	plan := r.Reconcile(source, target, src, tgt, nil)

	if len(plan.Creates) != 0 || len(plan.Cancels) != 0 {
		t.Errorf("matching trigger touched: creates=%v cancels=%v", plan.Creates, plan.Cancels)
	}
}

func TestTriggerReconcileRecreatesOnSizeDrift(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "1.0", true, 1)}
	// Same price but size off by 50%: cancel and recreate.
	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "0.5", true, 2)}

	plan := r.Reconcile(source, target, src, tgt, nil)

	if len(plan.Cancels) != 1 || plan.Cancels[0].OrderID != 2 {
		t.Fatalf("cancels = %v, want OID 2", plan.Cancels)
	}
	if len(plan.Creates) != 1 || !plan.Creates[0].Size.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("creates = %v, want recreated at size 1", plan.Creates)
	}
}

func TestTriggerReconcileKindMismatchNeverMatches(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "1.0", true, 1)}
	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "60000", "1.0", true, 2)}

	plan := r.Reconcile(source, target, src, tgt, nil)

	if len(plan.Cancels) != 1 {
		t.Errorf("stale SL not cancelled: %v", plan.Cancels)
	}
	if len(plan.Creates) != 1 || plan.Creates[0].Kind != domain.TriggerTakeProfit {
		t.Errorf("TP not created: %v", plan.Creates)
	}
}

func TestTriggerReconcileEachOrderConsumedOnce(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	// Two identical source triggers, one existing target order: the single
	// order satisfies exactly one of them, the second gets created.
	src := []domain.ConditionalOrder{
		trigger("BTC", domain.TriggerTakeProfit, "60000", "0.5", true, 1),
		trigger("BTC", domain.TriggerTakeProfit, "60000", "0.5", true, 2),
	}
	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "0.5", true, 3)}

	plan := r.Reconcile(source, target, src, tgt, nil)

	if len(plan.Creates) != 1 {
		t.Errorf("creates = %v, want exactly 1", plan.Creates)
	}
	if len(plan.Cancels) != 0 {
		t.Errorf("cancels = %v, want none", plan.Cancels)
	}
}

func TestTriggerReconcileCancelsOrphans(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "1.0", true, 7)}

	// No source triggers on BTC at all: the pass skips the coin entirely and
	// leaves the target's trigger alone. Orphan cleanup only runs for coins
	// the source actively manages.
	plan := r.Reconcile(source, target, nil, tgt, nil)
	if len(plan.Cancels) != 0 {
		t.Errorf("cancels = %v, want none without source triggers", plan.Cancels)
	}

	// Source has a trigger on the coin but not this one: the unmatched
	// target trigger goes.
	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "1.0", true, 1)}
	plan = r.Reconcile(source, target, src, tgt, nil)
	found := false
	for _, c := range plan.Cancels {
		if c.OrderID == 7 {
			found = true
		}
	}
	if !found {
		t.Errorf("orphan OID 7 not cancelled: %v", plan.Cancels)
	}
}

func TestTriggerReconcileFlatPositionCancelsAll(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(nil) // flat

	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "1.0", true, 1)}
	tgt := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "45000", "1.0", true, 2)}

	plan := r.Reconcile(source, target, src, tgt, nil)

	if len(plan.Creates) != 0 {
		t.Errorf("created trigger for flat position: %v", plan.Creates)
	}
	if len(plan.Cancels) != 1 || plan.Cancels[0].OrderID != 2 {
		t.Errorf("cancels = %v, want OID 2", plan.Cancels)
	}
}

func TestTriggerReconcileRestingLimitEquivalence(t *testing.T) {
	r := newTriggerReconciler(true)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})

	// Desired non-market TP at 60000; a resting SELL limit at the same price
	// and size already serves that purpose.
	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "1.0", false, 1)}
	resting := []domain.RestingOrder{{
		Coin:       "BTC",
		Side:       domain.SideSell,
		LimitPrice: decimal.RequireFromString("60000"),
		Size:       decimal.RequireFromString("1.0"),
		OrderID:    42,
	}}

	plan := r.Reconcile(source, target, src, nil, resting)

	if len(plan.Creates) != 0 {
		t.Errorf("equivalent resting limit ignored, creates = %v", plan.Creates)
	}
	if !plan.Protected[42] {
		t.Error("resting order 42 not protected from the open-order pass")
	}

	// Market triggers never use the equivalence rule.
	srcMarket := []domain.ConditionalOrder{trigger("BTC", domain.TriggerTakeProfit, "60000", "1.0", true, 1)}
	plan = r.Reconcile(source, target, srcMarket, nil, resting)
	if len(plan.Creates) != 1 {
		t.Errorf("market trigger must be created regardless of resting limits: %v", plan.Creates)
	}
}

func TestTriggerReconcileDropsTriggerBelowNotionalFloor(t *testing.T) {
	// Desired size 0.001 survives quantization; at mid 1000 its notional is
	// $1, below the $5 floor, so no trigger is created.
	r := usecase.NewTriggerReconciler(
		usecase.NewQuantizer(testMeta()),
		domain.MidPrices{"BTC": decimal.RequireFromString("1000")},
		decimal.RequireFromString("5"),
		false,
	)
	source := accountWith(map[string]string{"BTC": "1.0"})
	target := accountWith(map[string]string{"BTC": "1.0"})
	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "900", "0.001", true, 1)}

	plan := r.Reconcile(source, target, src, nil, nil)

	if len(plan.Creates) != 0 {
		t.Errorf("sub-notional trigger not dropped: %v", plan.Creates)
	}

	// The standard fixture quotes BTC at 50000, where the same trigger is
	// $50 notional and gets created.
	plan = newTriggerReconciler(false).Reconcile(source, target, src, nil, nil)
	if len(plan.Creates) != 1 {
		t.Errorf("trigger above the floor missing: %v", plan.Creates)
	}
}

func TestTriggerReconcileShortPositionExitsBuySide(t *testing.T) {
	r := newTriggerReconciler(false)
	source := accountWith(map[string]string{"BTC": "-1.0"})
	target := accountWith(map[string]string{"BTC": "-1.0"})

	src := []domain.ConditionalOrder{trigger("BTC", domain.TriggerStopLoss, "55000", "1.0", true, 1)}

	plan := r.Reconcile(source, target, src, nil, nil)

	if len(plan.Creates) != 1 || plan.Creates[0].Side != domain.SideBuy {
		t.Errorf("creates = %v, want BUY exit for a short", plan.Creates)
	}
}
