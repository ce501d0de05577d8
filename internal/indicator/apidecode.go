package indicator

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// technicalPayload is the quote API's technical-indicator body: a flat map
// of canonical field names to values.
type technicalPayload struct {
	Symbol     string             `json:"symbol"`
	Indicators map[string]float64 `json:"indicators"`
}

// DecodeAPIFields parses a technical-indicator API payload into Fields.
// Unknown indicator names are ignored; declared fields the payload omits
// stay unavailable.
func DecodeAPIFields(body string) (Fields, error) {
	var p technicalPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, eris.Wrap(err, "indicator: unmarshal api payload")
	}
	fields := NewFields()
	for name, v := range p.Indicators {
		if _, ok := fields[name]; ok {
			fields[name] = Some(v)
		}
	}
	return fields, nil
}
