package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vitos/hyper_copy_trade/internal/infrastructure/exchange"
)

// Smoke test for the public info endpoints: pass a network and an address.
func main() {
	network := "mainnet"
	if len(os.Args) > 1 {
		network = os.Args[1]
	}
	if len(os.Args) < 3 {
		fmt.Println("Usage: check_exchange <mainnet|testnet> <address>")
		os.Exit(1)
	}
	address := os.Args[2]

	apiURL, _, err := exchange.Endpoints(network)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Hyperliquid Interaction...\n")
	fmt.Printf("Endpoint: %s\n", apiURL)

	adapter := exchange.NewHyperliquidAdapter(apiURL, "")
	ctx := context.Background()

	// 1. Mid Prices
	mids, err := adapter.FetchMidPrices(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get mids: %v\n", err)
	} else {
		fmt.Printf("✅ Mid Prices: %d coins, BTC=%s\n", len(mids), mids["BTC"])
	}

	// 2. Instrument Metadata
	meta, err := adapter.FetchInstrumentMeta(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get meta: %v\n", err)
	} else {
		fmt.Printf("✅ Instruments: %d\n", len(meta))
	}

	// 3. Account State
	snapshot, err := adapter.FetchAccountSnapshot(ctx, address)
	if err != nil {
		fmt.Printf("❌ Failed to get account state: %v\n", err)
	} else {
		fmt.Printf("✅ Account %s: Value=%s, Withdrawable=%s, Positions=%d\n",
			address, snapshot.AccountValue, snapshot.Withdrawable, len(snapshot.Positions))
		for coin, pos := range snapshot.Positions {
			fmt.Printf("   %s: Size=%s, Entry=%s, PnL=%s\n",
				coin, pos.Size, pos.EntryPrice, pos.UnrealizedPnL)
		}
	}

	// 4. Open Orders
	triggers, err := adapter.FetchConditionalOrders(ctx, address)
	if err != nil {
		fmt.Printf("❌ Failed to get trigger orders: %v\n", err)
	} else {
		fmt.Printf("✅ Trigger Orders: %d\n", len(triggers))
	}
	resting, err := adapter.FetchRestingOrders(ctx, address)
	if err != nil {
		fmt.Printf("❌ Failed to get resting orders: %v\n", err)
	} else {
		fmt.Printf("✅ Resting Orders: %d\n", len(resting))
	}
}
