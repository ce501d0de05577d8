package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAPIFields(t *testing.T) {
	body := `{"symbol":"AAPL","indicators":{"RSI_14":55.3,"EMA20":187.2,"Volume_daily":2500000,"Obscure_99":1.0}}`

	fields, err := DecodeAPIFields(body)

	require.NoError(t, err)
	assert.Equal(t, Some(55.3), fields[FieldRSI14])
	assert.Equal(t, Some(187.2), fields[FieldEMA20])
	assert.Equal(t, Some(2500000.0), fields[FieldVolumeDaily])
	_, ok := fields["Obscure_99"]
	assert.False(t, ok, "unknown indicator names are dropped")

	// Declared fields the payload omits stay present and unavailable.
	assert.Len(t, fields, len(FieldNames()))
	assert.False(t, fields[FieldADX14].Valid)
}

func TestDecodeAPIFields_BadJSON(t *testing.T) {
	_, err := DecodeAPIFields("<html>not json</html>")
	assert.Error(t, err)
}
