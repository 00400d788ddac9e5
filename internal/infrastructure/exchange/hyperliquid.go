package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
	MainnetWSURL  = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL  = "wss://api.hyperliquid-testnet.xyz/ws"

	// Perp prices carry at most this many decimals in total; the per-coin
	// price granularity is derived as maxPerpPriceDecimals - szDecimals.
	maxPerpPriceDecimals = 6
)

// Endpoints resolves a network name to its API and websocket URLs.
// An unknown network is a configuration error and fails before any fetch.
func Endpoints(network string) (apiURL, wsURL string, err error) {
	switch strings.ToLower(network) {
	case "mainnet":
		return MainnetAPIURL, MainnetWSURL, nil
	case "testnet":
		return TestnetAPIURL, TestnetWSURL, nil
	default:
		return "", "", fmt.Errorf("network must be 'mainnet' or 'testnet', got %q", network)
	}
}

// HyperliquidAdapter implements domain.MarketData against the Hyperliquid
// info API. All requests are POST /info with a typed body; responses are
// decoded into domain types right here so nothing downstream ever sees the
// raw wire shape.
type HyperliquidAdapter struct {
	apiURL string
	client *http.Client

	ws *midStream
}

func NewHyperliquidAdapter(apiURL, wsURL string) *HyperliquidAdapter {
	return &HyperliquidAdapter{
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
		ws:     newMidStream(wsURL),
	}
}

func (h *HyperliquidAdapter) info(ctx context.Context, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("info %s: http %d: %s", body["type"], resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("info %s: decode: %w", body["type"], err)
	}
	return nil
}

// --- clearinghouseState ---

type wirePosition struct {
	Coin          string      `json:"coin"`
	Szi           wireDecimal `json:"szi"`
	EntryPx       wireDecimal `json:"entryPx"`
	UnrealizedPnl wireDecimal `json:"unrealizedPnl"`
	Leverage      struct {
		Value int `json:"value"`
	} `json:"leverage"`
}

type wireUserState struct {
	MarginSummary struct {
		AccountValue   wireDecimal `json:"accountValue"`
		TotalMarginUsd wireDecimal `json:"totalMarginUsed"`
	} `json:"marginSummary"`
	Withdrawable   wireDecimal `json:"withdrawable"`
	AssetPositions []struct {
		Position wirePosition `json:"position"`
	} `json:"assetPositions"`
}

func (h *HyperliquidAdapter) FetchAccountSnapshot(ctx context.Context, address string) (*domain.AccountSnapshot, error) {
	var state wireUserState
	if err := h.info(ctx, map[string]any{"type": "clearinghouseState", "user": address}, &state); err != nil {
		return nil, err
	}

	snapshot := &domain.AccountSnapshot{
		Address:      address,
		AccountValue: state.MarginSummary.AccountValue.Decimal,
		Withdrawable: state.Withdrawable.Decimal,
		MarginUsed:   state.MarginSummary.TotalMarginUsd.Decimal,
		Positions:    make(map[string]domain.Position, len(state.AssetPositions)),
	}
	for _, ap := range state.AssetPositions {
		p := ap.Position
		snapshot.Positions[p.Coin] = domain.Position{
			Coin:          p.Coin,
			Size:          p.Szi.Decimal,
			EntryPrice:    p.EntryPx.Decimal,
			UnrealizedPnL: p.UnrealizedPnl.Decimal,
			Leverage:      p.Leverage.Value,
		}
	}
	return snapshot, nil
}

// --- open orders ---

type wireOrder struct {
	Coin      string      `json:"coin"`
	Side      string      `json:"side"` // "B" = bid/buy, "A" = ask/sell
	LimitPx   wireDecimal `json:"limitPx"`
	Sz        wireDecimal `json:"sz"`
	Oid       int64       `json:"oid"`
	IsTrigger bool        `json:"isTrigger"`
	TriggerPx wireDecimal `json:"triggerPx"`
	OrderType string      `json:"orderType"` // e.g. "Take Profit Market", "Stop Limit", "Limit"
}

func wireSide(s string) domain.Side {
	if s == "B" {
		return domain.SideBuy
	}
	return domain.SideSell
}

// FetchConditionalOrders returns the account's TP/SL trigger orders. The
// frontendOpenOrders endpoint is the only one that carries trigger details.
func (h *HyperliquidAdapter) FetchConditionalOrders(ctx context.Context, address string) ([]domain.ConditionalOrder, error) {
	var orders []wireOrder
	if err := h.info(ctx, map[string]any{"type": "frontendOpenOrders", "user": address}, &orders); err != nil {
		return nil, err
	}

	var out []domain.ConditionalOrder
	for _, o := range orders {
		if !o.IsTrigger {
			continue
		}
		kind := domain.TriggerStopLoss
		if strings.Contains(o.OrderType, "Take Profit") {
			kind = domain.TriggerTakeProfit
		}
		out = append(out, domain.ConditionalOrder{
			Coin:         o.Coin,
			Kind:         kind,
			TriggerPrice: o.TriggerPx.Decimal,
			IsMarket:     strings.HasSuffix(o.OrderType, "Market"),
			Size:         o.Sz.Decimal,
			OrderID:      o.Oid,
		})
	}
	return out, nil
}

// FetchRestingOrders returns plain limit orders working in the book.
// Untriggered conditionals never appear in openOrders, so no filtering is
// needed beyond the endpoint choice.
func (h *HyperliquidAdapter) FetchRestingOrders(ctx context.Context, address string) ([]domain.RestingOrder, error) {
	var orders []wireOrder
	if err := h.info(ctx, map[string]any{"type": "openOrders", "user": address}, &orders); err != nil {
		return nil, err
	}

	out := make([]domain.RestingOrder, 0, len(orders))
	for _, o := range orders {
		if o.IsTrigger {
			continue
		}
		out = append(out, domain.RestingOrder{
			Coin:       o.Coin,
			Side:       wireSide(o.Side),
			LimitPrice: o.LimitPx.Decimal,
			Size:       o.Sz.Decimal,
			OrderID:    o.Oid,
		})
	}
	return out, nil
}

// --- meta / mids ---

type wireMeta struct {
	Universe []struct {
		Name       string `json:"name"`
		SzDecimals int    `json:"szDecimals"`
	} `json:"universe"`
}

func (h *HyperliquidAdapter) FetchInstrumentMeta(ctx context.Context) (map[string]domain.InstrumentMeta, error) {
	var meta wireMeta
	if err := h.info(ctx, map[string]any{"type": "meta"}, &meta); err != nil {
		return nil, err
	}

	out := make(map[string]domain.InstrumentMeta, len(meta.Universe))
	for _, a := range meta.Universe {
		out[a.Name] = domain.InstrumentMeta{
			SizeDecimals:  a.SzDecimals,
			PriceDecimals: maxPerpPriceDecimals - a.SzDecimals,
		}
	}
	return out, nil
}

func (h *HyperliquidAdapter) FetchMidPrices(ctx context.Context) (domain.MidPrices, error) {
	var mids map[string]string
	if err := h.info(ctx, map[string]any{"type": "allMids"}, &mids); err != nil {
		return nil, err
	}

	out := make(domain.MidPrices, len(mids))
	for coin, px := range mids {
		d, err := decimal.NewFromString(px)
		if err != nil {
			continue // a bad quote must not sink the whole table
		}
		out[coin] = d
	}
	return out, nil
}

// --- websocket mid stream ---

// OnMidsUpdate registers a callback invoked with every allMids push.
func (h *HyperliquidAdapter) OnMidsUpdate(callback func(domain.MidPrices)) {
	h.ws.onUpdate(callback)
}

// ConnectWS dials the websocket and subscribes to the allMids channel.
func (h *HyperliquidAdapter) ConnectWS() error {
	return h.ws.connect()
}

func (h *HyperliquidAdapter) CloseWS() {
	h.ws.close()
}
