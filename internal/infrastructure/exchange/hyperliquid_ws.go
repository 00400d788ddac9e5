package exchange

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/vitos/hyper_copy_trade/internal/domain"
)

// midStream maintains one websocket subscription to the allMids channel and
// fans each push out to registered callbacks. Keeping the mid table warm this
// way saves an info round trip per sync cycle.
type midStream struct {
	url       string
	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(domain.MidPrices)
}

func newMidStream(url string) *midStream {
	return &midStream{url: url}
}

func (s *midStream) onUpdate(callback func(domain.MidPrices)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

func (s *midStream) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	c, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return err
	}
	s.conn = c

	sub := map[string]any{
		"method":       "subscribe",
		"subscription": map[string]string{"type": "allMids"},
	}
	if err := c.WriteJSON(sub); err != nil {
		c.Close()
		s.conn = nil
		return err
	}

	go s.readLoop(c)
	return nil
}

func (s *midStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *midStream) readLoop(c *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == c {
			s.conn = nil
		}
		s.mu.Unlock()
		c.Close()
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Println("WS read error:", err)
			return
		}

		var event struct {
			Channel string `json:"channel"`
			Data    struct {
				Mids map[string]string `json:"mids"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			log.Println("WS unmarshal error:", err)
			continue
		}
		if event.Channel != "allMids" || len(event.Data.Mids) == 0 {
			continue
		}

		mids := make(domain.MidPrices, len(event.Data.Mids))
		for coin, px := range event.Data.Mids {
			d, err := decimal.NewFromString(px)
			if err != nil {
				continue
			}
			mids[coin] = d
		}

		s.mu.Lock()
		callbacks := make([]func(domain.MidPrices), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(mids)
		}
	}
}
