package exchange_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vitos/hyper_copy_trade/internal/domain"
	"github.com/vitos/hyper_copy_trade/internal/infrastructure/exchange"
)

// infoFixtures maps an info request type to a canned response body.
func infoServer(t *testing.T, fixtures map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/info", r.URL.Path)

		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		fixture, ok := fixtures[body.Type]
		if !ok {
			http.Error(w, "unexpected request type "+body.Type, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
}

func TestEndpoints(t *testing.T) {
	api, ws, err := exchange.Endpoints("mainnet")
	require.NoError(t, err)
	require.Equal(t, exchange.MainnetAPIURL, api)
	require.Equal(t, exchange.MainnetWSURL, ws)

	api, ws, err = exchange.Endpoints("Testnet")
	require.NoError(t, err)
	require.Equal(t, exchange.TestnetAPIURL, api)
	require.Equal(t, exchange.TestnetWSURL, ws)

	_, _, err = exchange.Endpoints("staging")
	require.Error(t, err)
}

func TestFetchAccountSnapshot(t *testing.T) {
	srv := infoServer(t, map[string]string{
		"clearinghouseState": `{
			"marginSummary": {"accountValue": "1182.31", "totalMarginUsed": "93.4"},
			"withdrawable": "1088.91",
			"assetPositions": [
				{"position": {"coin": "BTC", "szi": "0.015", "entryPx": "64230.0", "unrealizedPnl": "12.5", "leverage": {"value": 10}}},
				{"position": {"coin": "ETH", "szi": "-1.2", "entryPx": "", "unrealizedPnl": "-3.1", "leverage": {"value": 5}}}
			]
		}`,
	})
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	snapshot, err := adapter.FetchAccountSnapshot(context.Background(), "0xabc")
	require.NoError(t, err)

	require.Equal(t, "0xabc", snapshot.Address)
	require.True(t, snapshot.AccountValue.Equal(decimal.RequireFromString("1182.31")))
	require.True(t, snapshot.Withdrawable.Equal(decimal.RequireFromString("1088.91")))
	require.True(t, snapshot.MarginUsed.Equal(decimal.RequireFromString("93.4")))
	require.Len(t, snapshot.Positions, 2)

	btc := snapshot.Positions["BTC"]
	require.True(t, btc.Size.Equal(decimal.RequireFromString("0.015")))
	require.True(t, btc.IsLong())
	require.Equal(t, 10, btc.Leverage)

	// Empty entryPx decodes to zero rather than failing the whole snapshot.
	eth := snapshot.Positions["ETH"]
	require.True(t, eth.Size.IsNegative())
	require.True(t, eth.EntryPrice.IsZero())
}

func TestFetchConditionalOrders(t *testing.T) {
	srv := infoServer(t, map[string]string{
		"frontendOpenOrders": `[
			{"coin": "BTC", "side": "A", "limitPx": "0", "sz": "0.015", "oid": 100,
			 "isTrigger": true, "triggerPx": "70000", "orderType": "Take Profit Market"},
			{"coin": "BTC", "side": "A", "limitPx": "59000", "sz": "0.015", "oid": 101,
			 "isTrigger": true, "triggerPx": "60000", "orderType": "Stop Limit"},
			{"coin": "ETH", "side": "B", "limitPx": "3000", "sz": "1.5", "oid": 102,
			 "isTrigger": false, "orderType": "Limit"}
		]`,
	})
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	orders, err := adapter.FetchConditionalOrders(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, orders, 2) // the plain limit order is filtered out

	tp := orders[0]
	require.Equal(t, domain.TriggerTakeProfit, tp.Kind)
	require.True(t, tp.IsMarket)
	require.True(t, tp.TriggerPrice.Equal(decimal.RequireFromString("70000")))
	require.Equal(t, int64(100), tp.OrderID)

	sl := orders[1]
	require.Equal(t, domain.TriggerStopLoss, sl.Kind)
	require.False(t, sl.IsMarket)
}

func TestFetchRestingOrders(t *testing.T) {
	srv := infoServer(t, map[string]string{
		"openOrders": `[
			{"coin": "ETH", "side": "B", "limitPx": "3000", "sz": "1.5", "oid": 102},
			{"coin": "SOL", "side": "A", "limitPx": "150.5", "sz": "10", "oid": 103}
		]`,
	})
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	orders, err := adapter.FetchRestingOrders(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	require.Equal(t, domain.SideBuy, orders[0].Side)
	require.Equal(t, domain.SideSell, orders[1].Side)
	require.True(t, orders[1].LimitPrice.Equal(decimal.RequireFromString("150.5")))
}

func TestFetchInstrumentMeta(t *testing.T) {
	srv := infoServer(t, map[string]string{
		"meta": `{"universe": [
			{"name": "BTC", "szDecimals": 5},
			{"name": "ETH", "szDecimals": 4}
		]}`,
	})
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	meta, err := adapter.FetchInstrumentMeta(context.Background())
	require.NoError(t, err)
	require.Len(t, meta, 2)

	require.Equal(t, 5, meta["BTC"].SizeDecimals)
	require.Equal(t, 1, meta["BTC"].PriceDecimals) // 6 - szDecimals
	require.True(t, meta["BTC"].Tick().Equal(decimal.RequireFromString("0.1")))
	require.Equal(t, 2, meta["ETH"].PriceDecimals)
}

func TestFetchMidPrices(t *testing.T) {
	srv := infoServer(t, map[string]string{
		"allMids": `{"BTC": "64500.5", "ETH": "3050.1", "BROKEN": "not-a-number"}`,
	})
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	mids, err := adapter.FetchMidPrices(context.Background())
	require.NoError(t, err)

	// The bad quote is dropped, the rest of the table survives.
	require.Len(t, mids, 2)
	require.True(t, mids["BTC"].Equal(decimal.RequireFromString("64500.5")))
}

func TestInfoHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := exchange.NewHyperliquidAdapter(srv.URL, "")
	_, err := adapter.FetchMidPrices(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
