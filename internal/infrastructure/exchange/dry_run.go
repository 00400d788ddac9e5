package exchange

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// DryRunExecutor logs every action instead of sending it. Used by the check
// commands and whenever no signer is configured.
type DryRunExecutor struct {
	logger *zap.Logger
}

func NewDryRunExecutor(logger *zap.Logger) *DryRunExecutor {
	return &DryRunExecutor{logger: logger}
}

func (d *DryRunExecutor) PlaceMarketOrder(_ context.Context, coin string, side domain.Side, size decimal.Decimal, reduceOnly bool) domain.OrderResult {
	d.logger.Info("dry-run: market order",
		zap.String("coin", coin),
		zap.String("side", string(side)),
		zap.String("size", size.String()),
		zap.Bool("reduce_only", reduceOnly))
	return domain.OrderResult{Coin: coin, Side: side, Size: size}
}

func (d *DryRunExecutor) PlaceTriggerOrder(_ context.Context, action domain.CreateTriggerAction) domain.OrderResult {
	d.logger.Info("dry-run: trigger order",
		zap.String("coin", action.Coin),
		zap.String("kind", string(action.Kind)),
		zap.String("side", string(action.Side)),
		zap.String("size", action.Size.String()),
		zap.String("trigger_px", action.TriggerPrice.String()),
		zap.Bool("is_market", action.IsMarket))
	return domain.OrderResult{Coin: action.Coin, Side: action.Side, Size: action.Size}
}

func (d *DryRunExecutor) CancelOrder(_ context.Context, coin string, orderID int64) domain.CancelResult {
	d.logger.Info("dry-run: cancel order",
		zap.String("coin", coin),
		zap.Int64("oid", orderID))
	return domain.CancelResult{Coin: coin, OrderID: orderID}
}

func (d *DryRunExecutor) ClosePosition(_ context.Context, coin string) domain.OrderResult {
	d.logger.Info("dry-run: close position", zap.String("coin", coin))
	return domain.OrderResult{Coin: coin}
}
