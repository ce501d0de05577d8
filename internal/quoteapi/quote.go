package quoteapi

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/marketdesk/indicators-cli/internal/indicator"
)

// Quote is one symbol's price snapshot. Fields the upstream omits stay
// Unavailable rather than zero, so a missing P/E is distinguishable from a
// P/E of 0.
type Quote struct {
	Symbol    string
	Price     indicator.Value
	High52W   indicator.Value
	Low52W    indicator.Value
	MarketCap indicator.Value
	PERatio   indicator.Value
}

// quotePayload is the upstream quote body. Pointers distinguish absent
// fields from zeroes.
type quotePayload struct {
	Price     *float64 `json:"price"`
	High52W   *float64 `json:"high_52_weeks"`
	Low52W    *float64 `json:"low_52_weeks"`
	MarketCap *float64 `json:"market_cap"`
	PERatio   *float64 `json:"pe_ratio"`
}

func decodeQuote(body []byte) (*Quote, error) {
	var p quotePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, eris.Wrap(err, "unmarshal quote")
	}
	return &Quote{
		Price:     optional(p.Price),
		High52W:   optional(p.High52W),
		Low52W:    optional(p.Low52W),
		MarketCap: optional(p.MarketCap),
		PERatio:   optional(p.PERatio),
	}, nil
}

func optional(v *float64) indicator.Value {
	if v == nil {
		return indicator.Unavailable
	}
	return indicator.Some(*v)
}
