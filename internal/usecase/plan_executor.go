package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// ExecutionReport aggregates the raw results of executing one plan,
// including per-action failures.
type ExecutionReport struct {
	OrdersPlaced    []domain.OrderResult  `json:"orders_placed"`
	OrdersCancelled []domain.CancelResult `json:"orders_cancelled"`
	FinishedAt      time.Time             `json:"finished_at"`
}

func (r *ExecutionReport) ErrorCount() int {
	n := 0
	for _, o := range r.OrdersPlaced {
		if !o.OK() {
			n++
		}
	}
	for _, c := range r.OrdersCancelled {
		if !c.OK() {
			n++
		}
	}
	return n
}

// PlanExecutor walks a SyncPlan and issues the exchange calls in a fixed
// order: closes, market adjustments, trigger cancels, open-order cancels,
// trigger creates. Capital and margin freed by closes and cancels is then
// available before new triggers are opened.
//
// Each action stands alone; a failed action never blocks the rest. The plan
// is recomputed from fresh state next cycle, so anything that failed here is
// naturally retried if the mismatch persists.
type PlanExecutor struct {
	exec   domain.Execution
	logger *zap.Logger
}

func NewPlanExecutor(exec domain.Execution, logger *zap.Logger) *PlanExecutor {
	return &PlanExecutor{exec: exec, logger: logger}
}

func (e *PlanExecutor) Execute(ctx context.Context, plan *domain.SyncPlan) *ExecutionReport {
	report := &ExecutionReport{}

	for _, c := range plan.Closes {
		res := e.exec.ClosePosition(ctx, c.Coin)
		e.logResult("close", res)
		report.OrdersPlaced = append(report.OrdersPlaced, res)
	}

	for _, a := range plan.MarketAdjustments {
		res := e.exec.PlaceMarketOrder(ctx, a.Coin, a.Side, a.Amount, a.ReduceOnly)
		e.logResult("market", res)
		report.OrdersPlaced = append(report.OrdersPlaced, res)
	}

	for _, c := range plan.TriggersToCancel {
		res := e.exec.CancelOrder(ctx, c.Coin, c.OrderID)
		e.logCancel("cancel_trigger", res)
		report.OrdersCancelled = append(report.OrdersCancelled, res)
	}

	for _, c := range plan.OpenOrdersToCancel {
		res := e.exec.CancelOrder(ctx, c.Coin, c.OrderID)
		e.logCancel("cancel_order", res)
		report.OrdersCancelled = append(report.OrdersCancelled, res)
	}

	for _, t := range plan.TriggersToCreate {
		res := e.exec.PlaceTriggerOrder(ctx, t)
		e.logResult("create_trigger", res)
		report.OrdersPlaced = append(report.OrdersPlaced, res)
	}

	report.FinishedAt = time.Now()
	return report
}

func (e *PlanExecutor) logResult(kind string, res domain.OrderResult) {
	if res.OK() {
		e.logger.Info("action executed",
			zap.String("kind", kind),
			zap.String("coin", res.Coin),
			zap.String("size", res.Size.String()))
		return
	}
	e.logger.Error("action failed",
		zap.String("kind", kind),
		zap.String("coin", res.Coin),
		zap.String("error", res.Err))
}

func (e *PlanExecutor) logCancel(kind string, res domain.CancelResult) {
	if res.OK() {
		e.logger.Info("order cancelled",
			zap.String("kind", kind),
			zap.String("coin", res.Coin),
			zap.Int64("oid", res.OrderID))
		return
	}
	e.logger.Error("cancel failed",
		zap.String("kind", kind),
		zap.String("coin", res.Coin),
		zap.Int64("oid", res.OrderID),
		zap.String("error", res.Err))
}
