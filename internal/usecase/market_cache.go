package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

const (
	metaTTL = 60 * time.Second // instrument metadata changes rarely
	midsTTL = 5 * time.Second  // mids only gate the notional filter
)

// MarketCache is a read-through cache over the instrument metadata and
// mid-price endpoints. Both entries carry a fixed TTL; a websocket mid feed
// can also push fresh mids in between fetches via PutMids.
//
// The mutex is there for the push path: the engine itself is single-threaded,
// but the mid stream callback runs on the websocket reader goroutine.
type MarketCache struct {
	source domain.MarketData

	mu     sync.Mutex
	meta   map[string]domain.InstrumentMeta
	metaAt time.Time
	mids   domain.MidPrices
	midsAt time.Time

	timeNow func() time.Time // for testing
}

func NewMarketCache(source domain.MarketData) *MarketCache {
	return &MarketCache{
		source:  source,
		timeNow: time.Now,
	}
}

func (c *MarketCache) InstrumentMeta(ctx context.Context) (map[string]domain.InstrumentMeta, error) {
	c.mu.Lock()
	if c.meta != nil && c.timeNow().Sub(c.metaAt) < metaTTL {
		meta := c.meta
		c.mu.Unlock()
		return meta, nil
	}
	c.mu.Unlock()

	meta, err := c.source.FetchInstrumentMeta(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.meta = meta
	c.metaAt = c.timeNow()
	c.mu.Unlock()
	return meta, nil
}

func (c *MarketCache) MidPrices(ctx context.Context) (domain.MidPrices, error) {
	c.mu.Lock()
	if c.mids != nil && c.timeNow().Sub(c.midsAt) < midsTTL {
		mids := c.mids
		c.mu.Unlock()
		return mids, nil
	}
	c.mu.Unlock()

	mids, err := c.source.FetchMidPrices(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.mids = mids
	c.midsAt = c.timeNow()
	c.mu.Unlock()
	return mids, nil
}

// PutMids installs a fresh mid-price table pushed by the websocket stream.
func (c *MarketCache) PutMids(mids domain.MidPrices) {
	if len(mids) == 0 {
		return
	}
	c.mu.Lock()
	c.mids = mids
	c.midsAt = c.timeNow()
	c.mu.Unlock()
}
