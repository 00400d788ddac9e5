package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// Market orders are sent as IoC limit orders with a slippage-capped price.
var defaultSlippage = decimal.NewFromFloat(0.01) // 1%

// RequestSigner produces the signature object for an /exchange action.
// Key management and the signature scheme live entirely behind this
// interface; this package only assembles and posts the payloads.
type RequestSigner interface {
	Address() string
	Sign(action json.RawMessage, nonce int64) (json.RawMessage, error)
}

// RemoteSigner delegates signing to a sidecar service over HTTP: the private
// key never enters this process.
type RemoteSigner struct {
	url     string
	address string
	client  *http.Client
}

func NewRemoteSigner(url, address string) *RemoteSigner {
	return &RemoteSigner{
		url:     url,
		address: address,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *RemoteSigner) Address() string { return s.address }

func (s *RemoteSigner) Sign(action json.RawMessage, nonce int64) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"action": action, "nonce": nonce})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("signer: http %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Signature json.RawMessage `json:"signature"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("signer: decode: %w", err)
	}
	return out.Signature, nil
}

type assetInfo struct {
	index      int
	szDecimals int
	pxDecimals int
}

// ExchangeClient implements domain.Execution against the Hyperliquid
// /exchange endpoint. Failures come back inside the result values, never as
// panics or bare errors, so a plan executor can keep going.
type ExchangeClient struct {
	apiURL string
	client *http.Client
	signer RequestSigner
	info   *HyperliquidAdapter

	mu     sync.Mutex
	assets map[string]assetInfo
}

func NewExchangeClient(apiURL string, signer RequestSigner, info *HyperliquidAdapter) *ExchangeClient {
	return &ExchangeClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
		signer: signer,
		info:   info,
	}
}

// asset resolves a coin name to its universe index and decimals, fetching
// the universe once and keeping it for the lifetime of the client (asset
// indices are stable).
func (c *ExchangeClient) asset(ctx context.Context, coin string) (assetInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.assets == nil {
		var meta wireMeta
		if err := c.info.info(ctx, map[string]any{"type": "meta"}, &meta); err != nil {
			return assetInfo{}, err
		}
		c.assets = make(map[string]assetInfo, len(meta.Universe))
		for i, a := range meta.Universe {
			c.assets[a.Name] = assetInfo{
				index:      i,
				szDecimals: a.SzDecimals,
				pxDecimals: maxPerpPriceDecimals - a.SzDecimals,
			}
		}
	}

	a, ok := c.assets[coin]
	if !ok {
		return assetInfo{}, fmt.Errorf("unknown coin %q", coin)
	}
	return a, nil
}

type wireNewOrder struct {
	Asset      int             `json:"a"`
	IsBuy      bool            `json:"b"`
	Price      string          `json:"p"`
	Size       string          `json:"s"`
	ReduceOnly bool            `json:"r"`
	Type       json.RawMessage `json:"t"`
}

func limitIoc() json.RawMessage {
	return json.RawMessage(`{"limit":{"tif":"Ioc"}}`)
}

func triggerType(kind domain.TriggerKind, triggerPx string, isMarket bool) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"trigger": map[string]any{
			"isMarket":  isMarket,
			"triggerPx": triggerPx,
			"tpsl":      string(kind),
		},
	})
	return raw
}

// postAction signs and posts one action, returning the per-order statuses.
func (c *ExchangeClient) postAction(ctx context.Context, action any) ([]json.RawMessage, error) {
	rawAction, err := json.Marshal(action)
	if err != nil {
		return nil, err
	}

	nonce := time.Now().UnixMilli()
	signature, err := c.signer.Sign(rawAction, nonce)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"action":    json.RawMessage(rawAction),
		"nonce":     nonce,
		"signature": signature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/exchange", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("exchange: http %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Status   string `json:"status"`
		Response struct {
			Data struct {
				Statuses []json.RawMessage `json:"statuses"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("exchange: decode: %w", err)
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("exchange: %s", string(raw))
	}
	return out.Response.Data.Statuses, nil
}

// orderStatus digests a single order status blob into (oid, filled, error).
func orderStatus(raw json.RawMessage) (int64, bool, string) {
	var st struct {
		Resting *struct {
			Oid int64 `json:"oid"`
		} `json:"resting"`
		Filled *struct {
			Oid int64 `json:"oid"`
		} `json:"filled"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return 0, false, fmt.Sprintf("bad status: %v", err)
	}
	switch {
	case st.Error != "":
		return 0, false, st.Error
	case st.Filled != nil:
		return st.Filled.Oid, true, ""
	case st.Resting != nil:
		return st.Resting.Oid, false, ""
	}
	return 0, false, ""
}

func (c *ExchangeClient) placeOrder(ctx context.Context, coin string, side domain.Side, size decimal.Decimal, order wireNewOrder) domain.OrderResult {
	res := domain.OrderResult{Coin: coin, Side: side, Size: size}

	statuses, err := c.postAction(ctx, map[string]any{
		"type":     "order",
		"orders":   []wireNewOrder{order},
		"grouping": "na",
	})
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if len(statuses) == 0 {
		res.Err = "empty status list"
		return res
	}

	res.OrderID, res.Filled, res.Err = orderStatus(statuses[0])
	return res
}

func (c *ExchangeClient) PlaceMarketOrder(ctx context.Context, coin string, side domain.Side, size decimal.Decimal, reduceOnly bool) domain.OrderResult {
	res := domain.OrderResult{Coin: coin, Side: side, Size: size}

	asset, err := c.asset(ctx, coin)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	mids, err := c.info.FetchMidPrices(ctx)
	if err != nil {
		res.Err = fmt.Sprintf("mids: %v", err)
		return res
	}
	mid, ok := mids[coin]
	if !ok {
		res.Err = fmt.Sprintf("no mid price for %s", coin)
		return res
	}

	// Slippage-capped IoC price: worst acceptable fill, truncated to the
	// instrument's price granularity.
	px := mid.Mul(one.Add(defaultSlippage))
	if side == domain.SideSell {
		px = mid.Mul(one.Sub(defaultSlippage))
	}
	px = px.Truncate(int32(asset.pxDecimals))

	return c.placeOrder(ctx, coin, side, size, wireNewOrder{
		Asset:      asset.index,
		IsBuy:      side == domain.SideBuy,
		Price:      px.String(),
		Size:       size.String(),
		ReduceOnly: reduceOnly,
		Type:       limitIoc(),
	})
}

func (c *ExchangeClient) PlaceTriggerOrder(ctx context.Context, action domain.CreateTriggerAction) domain.OrderResult {
	res := domain.OrderResult{Coin: action.Coin, Side: action.Side, Size: action.Size}

	asset, err := c.asset(ctx, action.Coin)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	px := action.TriggerPrice.String()
	return c.placeOrder(ctx, action.Coin, action.Side, action.Size, wireNewOrder{
		Asset:      asset.index,
		IsBuy:      action.Side == domain.SideBuy,
		Price:      px,
		Size:       action.Size.String(),
		ReduceOnly: true, // TP/SL always reduces the position
		Type:       triggerType(action.Kind, px, action.IsMarket),
	})
}

func (c *ExchangeClient) CancelOrder(ctx context.Context, coin string, orderID int64) domain.CancelResult {
	res := domain.CancelResult{Coin: coin, OrderID: orderID}

	asset, err := c.asset(ctx, coin)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	statuses, err := c.postAction(ctx, map[string]any{
		"type": "cancel",
		"cancels": []map[string]any{
			{"a": asset.index, "o": orderID},
		},
	})
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if len(statuses) > 0 {
		if _, _, errMsg := orderStatus(statuses[0]); errMsg != "" {
			res.Err = errMsg
		}
	}
	return res
}

func (c *ExchangeClient) ClosePosition(ctx context.Context, coin string) domain.OrderResult {
	res := domain.OrderResult{Coin: coin}

	snapshot, err := c.info.FetchAccountSnapshot(ctx, c.signer.Address())
	if err != nil {
		res.Err = err.Error()
		return res
	}
	pos, ok := snapshot.Positions[coin]
	if !ok || pos.IsFlat() {
		return res // nothing to close
	}

	side := domain.SideSell
	if !pos.IsLong() {
		side = domain.SideBuy
	}
	return c.PlaceMarketOrder(ctx, coin, side, pos.Size.Abs(), true)
}

var one = decimal.NewFromInt(1)
