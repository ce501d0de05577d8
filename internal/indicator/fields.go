// Package indicator defines the technical indicator field set, the pattern
// parser that extracts values from page content, the deterministic mock
// generator, and the per-ticker record assembler.
package indicator

// Field names, in canonical column order. Every produced record carries all
// of them; consumers guard against unavailable values, never missing keys.
const (
	FieldWoodiesPivot    = "Woodies_Pivot"
	FieldWoodiesS1       = "Woodies_S1"
	FieldWoodiesS2       = "Woodies_S2"
	FieldWoodiesR1       = "Woodies_R1"
	FieldWoodiesR2       = "Woodies_R2"
	FieldEMA20           = "EMA20"
	FieldSMA50           = "SMA50"
	FieldRSI14           = "RSI_14"
	FieldMACDValue       = "MACD_value"
	FieldMACDSignal      = "MACD_signal"
	FieldMACDHistogram   = "MACD_histogram"
	FieldBollingerUpper  = "Bollinger_upper"
	FieldBollingerMiddle = "Bollinger_middle"
	FieldBollingerLower  = "Bollinger_lower"
	FieldVolumeDaily     = "Volume_daily"
	FieldADX14           = "ADX_14"
	FieldATR14           = "ATR_14"
)

// FieldNames returns the 17 indicator fields in canonical order.
func FieldNames() []string {
	return []string{
		FieldWoodiesPivot,
		FieldWoodiesS1,
		FieldWoodiesS2,
		FieldWoodiesR1,
		FieldWoodiesR2,
		FieldEMA20,
		FieldSMA50,
		FieldRSI14,
		FieldMACDValue,
		FieldMACDSignal,
		FieldMACDHistogram,
		FieldBollingerUpper,
		FieldBollingerMiddle,
		FieldBollingerLower,
		FieldVolumeDaily,
		FieldADX14,
		FieldATR14,
	}
}

// Value is a tagged optional numeric. An unavailable indicator is a zero
// Value, never a magic number or a string sentinel in a numeric column.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some wraps a present value.
func Some(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Unavailable is the absent value.
var Unavailable = Value{}

// Fields maps indicator names to values. NewFields pre-populates every
// declared field so the all-fields-present invariant holds from birth.
type Fields map[string]Value

// NewFields returns a Fields with all 17 keys present and unavailable.
func NewFields() Fields {
	f := make(Fields, len(FieldNames()))
	for _, name := range FieldNames() {
		f[name] = Unavailable
	}
	return f
}

// MatchCount reports how many fields hold a present value.
func (f Fields) MatchCount() int {
	n := 0
	for _, v := range f {
		if v.Valid {
			n++
		}
	}
	return n
}
