package exchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// wireDecimal decodes Hyperliquid's decimal strings, tolerating empty
// strings and nulls (absent prices come back as "" on some endpoints).
type wireDecimal struct {
	decimal.Decimal
}

func (d *wireDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	return d.Decimal.UnmarshalJSON(data)
}
