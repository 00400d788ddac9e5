package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/hyper_copy_trade/internal/infrastructure/exchange"
	"github.com/vitos/hyper_copy_trade/internal/usecase"
)

// Builds and prints the sync plan for a source/target pair without executing
// anything. Useful before pointing the bot at a new leader account.
func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: check_plan <mainnet|testnet> <source_address> <target_address>")
		os.Exit(1)
	}
	network, source, target := os.Args[1], os.Args[2], os.Args[3]

	apiURL, _, err := exchange.Endpoints(network)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	adapter := exchange.NewHyperliquidAdapter(apiURL, "")
	cache := usecase.NewMarketCache(adapter)
	builder := usecase.NewPlanBuilder(decimal.Zero, false)
	executor := usecase.NewPlanExecutor(exchange.NewDryRunExecutor(zap.NewNop()), zap.NewNop())

	svc := usecase.NewCopyService(adapter, cache, builder, executor, nil, source, target, zap.NewNop())

	plan, err := svc.BuildPlan(context.Background())
	if err != nil {
		fmt.Printf("❌ Failed to build plan: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(plan.Describe())
	if plan.IsEmpty() {
		fmt.Println("Accounts are already in sync.")
	}
}
