package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// CopyService runs one reconciliation cycle end to end: fetch both account
// states, build a plan, optionally stop for confirmation, execute, persist.
// It keeps no state between cycles beyond what MarketCache holds.
type CopyService struct {
	market   domain.MarketData
	cache    *MarketCache
	builder  *PlanBuilder
	executor *PlanExecutor
	repo     domain.SyncRepository // may be nil; history is then not persisted

	sourceAddress string
	targetAddress string

	logger  *zap.Logger
	timeNow func() time.Time
}

func NewCopyService(
	market domain.MarketData,
	cache *MarketCache,
	builder *PlanBuilder,
	executor *PlanExecutor,
	repo domain.SyncRepository,
	sourceAddress, targetAddress string,
	logger *zap.Logger,
) *CopyService {
	return &CopyService{
		market:        market,
		cache:         cache,
		builder:       builder,
		executor:      executor,
		repo:          repo,
		sourceAddress: sourceAddress,
		targetAddress: targetAddress,
		logger:        logger,
		timeNow:       time.Now,
	}
}

// SyncOutcome is what one cycle produced. When RequiresConfirmation is set
// the plan has not been executed and Report is nil.
type SyncOutcome struct {
	Plan                 *domain.SyncPlan
	RequiresConfirmation bool
	Report               *ExecutionReport
}

// BuildPlan fetches fresh state for both accounts and computes the plan
// without executing anything.
func (s *CopyService) BuildPlan(ctx context.Context) (*domain.SyncPlan, error) {
	source, err := s.market.FetchAccountSnapshot(ctx, s.sourceAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch source snapshot: %w", err)
	}
	target, err := s.market.FetchAccountSnapshot(ctx, s.targetAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch target snapshot: %w", err)
	}

	srcTriggers, err := s.market.FetchConditionalOrders(ctx, s.sourceAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch source triggers: %w", err)
	}
	tgtTriggers, err := s.market.FetchConditionalOrders(ctx, s.targetAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch target triggers: %w", err)
	}
	srcResting, err := s.market.FetchRestingOrders(ctx, s.sourceAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch source orders: %w", err)
	}
	tgtResting, err := s.market.FetchRestingOrders(ctx, s.targetAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch target orders: %w", err)
	}

	meta, err := s.cache.InstrumentMeta(ctx)
	if err != nil {
		// Metadata gaps degrade to pass-through quantization; do not abort.
		s.logger.Warn("instrument metadata unavailable, quantization disabled", zap.Error(err))
		meta = nil
	}
	mids, err := s.cache.MidPrices(ctx)
	if err != nil {
		// Without mids the notional filter simply does not drop anything.
		s.logger.Warn("mid prices unavailable, notional filter disabled", zap.Error(err))
		mids = nil
	}

	return s.builder.Build(PlanInput{
		Source:         source,
		Target:         target,
		SourceTriggers: srcTriggers,
		TargetTriggers: tgtTriggers,
		SourceResting:  srcResting,
		TargetResting:  tgtResting,
		Meta:           meta,
		Mids:           mids,
	}), nil
}

// SyncOnce performs one cycle. With manualConfirm the plan is returned
// unexecuted for the caller to confirm and pass to ExecutePlan.
func (s *CopyService) SyncOnce(ctx context.Context, manualConfirm bool) (*SyncOutcome, error) {
	plan, err := s.BuildPlan(ctx)
	if err != nil {
		return nil, err
	}

	if plan.IsEmpty() {
		s.logger.Info("already in sync", zap.String("scale_ratio", plan.ScaleRatio.String()))
		s.persistCycle(ctx, plan, nil)
		return &SyncOutcome{Plan: plan}, nil
	}

	if manualConfirm {
		return &SyncOutcome{Plan: plan, RequiresConfirmation: true}, nil
	}

	report := s.ExecutePlan(ctx, plan)
	return &SyncOutcome{Plan: plan, Report: report}, nil
}

// ExecutePlan issues the plan's actions and persists the cycle record.
func (s *CopyService) ExecutePlan(ctx context.Context, plan *domain.SyncPlan) *ExecutionReport {
	s.logger.Info("executing sync plan",
		zap.Int("actions", plan.ActionCount()),
		zap.String("scale_ratio", plan.ScaleRatio.String()))

	report := s.executor.Execute(ctx, plan)
	s.persistCycle(ctx, plan, report)
	return report
}

func (s *CopyService) persistCycle(ctx context.Context, plan *domain.SyncPlan, report *ExecutionReport) {
	if s.repo == nil {
		return
	}

	cycle := &domain.SyncCycle{
		StartedAt:  plan.GeneratedAt,
		ScaleRatio: plan.ScaleRatio,
		Executed:   report != nil,
	}
	if report != nil {
		cycle.OrdersPlaced = len(report.OrdersPlaced)
		cycle.OrdersCancelled = len(report.OrdersCancelled)
		cycle.Errors = report.ErrorCount()
		cycle.Actions = actionsFromReport(report)
	}

	if err := s.repo.SaveCycle(ctx, cycle); err != nil {
		s.logger.Error("failed to persist sync cycle", zap.Error(err))
	}
}

func actionsFromReport(report *ExecutionReport) []domain.SyncAction {
	actions := make([]domain.SyncAction, 0, len(report.OrdersPlaced)+len(report.OrdersCancelled))
	for _, o := range report.OrdersPlaced {
		actions = append(actions, domain.SyncAction{
			Kind:    "place",
			Coin:    o.Coin,
			Side:    o.Side,
			Size:    o.Size,
			OrderID: o.OrderID,
			Err:     o.Err,
		})
	}
	for _, c := range report.OrdersCancelled {
		actions = append(actions, domain.SyncAction{
			Kind:    "cancel",
			Coin:    c.Coin,
			OrderID: c.OrderID,
			Err:     c.Err,
		})
	}
	return actions
}
