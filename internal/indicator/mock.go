package indicator

import (
	"crypto/md5"
	"encoding/binary"
)

// MockIndicators produces deterministic synthetic indicator values for a
// ticker. The seed is derived from a stable hash of the ticker string, so
// repeated calls yield identical output within a run and across runs.
// Values keep the semantic ordering real pages would have: supports below
// the pivot, resistances above, bands around the price. Never touches the
// network.
func MockIndicators(ticker string) Fields {
	sum := md5.Sum([]byte(ticker))
	h := uint64(binary.BigEndian.Uint32(sum[:4]))

	price := float64(100 + h%500) // 100-600

	f := NewFields()
	f[FieldWoodiesPivot] = Some(price + float64(h%20) - 10)
	f[FieldWoodiesS1] = Some(price - 15 - float64(h%10))
	f[FieldWoodiesS2] = Some(price - 25 - float64(h%15))
	f[FieldWoodiesR1] = Some(price + 15 + float64(h%10))
	f[FieldWoodiesR2] = Some(price + 25 + float64(h%15))
	f[FieldEMA20] = Some(price + float64(h%10) - 5)
	f[FieldSMA50] = Some(price + float64(h%12) - 6)
	f[FieldRSI14] = Some(30 + float64(h%40))          // 30-70
	f[FieldMACDValue] = Some(float64(h%20) - 10)      // -10..10
	f[FieldMACDSignal] = Some(float64(h%15) - 7.5)
	f[FieldMACDHistogram] = Some(float64(h%8) - 4)
	f[FieldBollingerUpper] = Some(price + 20 + float64(h%10))
	f[FieldBollingerMiddle] = Some(price)
	f[FieldBollingerLower] = Some(price - 20 - float64(h%10))
	f[FieldVolumeDaily] = Some(float64(h%10000000 + 1000000)) // 1M-11M
	f[FieldADX14] = Some(20 + float64(h%50))          // 20-70
	f[FieldATR14] = Some(1 + float64(h%10))           // 1-11
	return f
}
