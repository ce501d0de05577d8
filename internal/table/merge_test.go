package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/indicators-cli/internal/indicator"
	"github.com/marketdesk/indicators-cli/internal/quoteapi"
)

func sampleRecord(ticker string) indicator.Record {
	fields := indicator.NewFields()
	fields[indicator.FieldRSI14] = indicator.Some(55.3)
	fields[indicator.FieldEMA20] = indicator.Some(187.2)
	return indicator.Record{
		Ticker:    ticker,
		Source:    "https://example.com/" + ticker,
		Fields:    fields,
		Quality:   indicator.QualityGood,
		Notes:     "",
		CheckedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestMergeRecords_UpsertsByTicker(t *testing.T) {
	tbl := New(ColTicker, "AnalystRating")
	tbl.Rows = append(tbl.Rows,
		map[string]string{ColTicker: "AAPL", "AnalystRating": "buy"},
		map[string]string{ColTicker: "MSFT", "AnalystRating": "hold"},
	)

	MergeRecords(tbl, []indicator.Record{sampleRecord("AAPL"), sampleRecord("NVDA")})

	require.Len(t, tbl.Rows, 3)

	aapl := tbl.FindRow(ColTicker, "AAPL")
	require.NotNil(t, aapl)
	assert.Equal(t, "55.3", aapl[indicator.FieldRSI14])
	assert.Equal(t, "good", aapl[ColDataQuality])
	assert.Equal(t, "buy", aapl["AnalystRating"], "columns outside the batch must survive")

	msft := tbl.FindRow(ColTicker, "MSFT")
	require.NotNil(t, msft)
	assert.Empty(t, msft[ColDataQuality], "tickers outside the batch must not be touched")
	assert.Equal(t, "hold", msft["AnalystRating"])

	nvda := tbl.FindRow(ColTicker, "NVDA")
	require.NotNil(t, nvda)
	assert.Equal(t, "187.2", nvda[indicator.FieldEMA20])
}

func TestMergeRecords_AddsColumnsOnce(t *testing.T) {
	tbl := New(ColTicker)

	MergeRecords(tbl, []indicator.Record{sampleRecord("AAPL")})
	MergeRecords(tbl, []indicator.Record{sampleRecord("AAPL")})

	seen := map[string]int{}
	for _, c := range tbl.Columns {
		seen[c]++
	}
	for col, n := range seen {
		assert.Equal(t, 1, n, "column %s duplicated", col)
	}
	require.Len(t, tbl.Rows, 1, "re-merging the same ticker must not duplicate the row")
}

func TestMergeRecords_UnavailableFieldsAreEmptyCells(t *testing.T) {
	tbl := New(ColTicker)
	rec := sampleRecord("AAPL")

	MergeRecords(tbl, []indicator.Record{rec})

	row := tbl.FindRow(ColTicker, "AAPL")
	require.NotNil(t, row)
	assert.Empty(t, row[indicator.FieldADX14], "unavailable values are empty cells, not sentinels")
	assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC).Format(time.RFC3339), row[ColLastChecked])
}

func TestMergeQuotes(t *testing.T) {
	tbl := New(ColTicker, ColDataQuality)
	tbl.Rows = append(tbl.Rows,
		map[string]string{ColTicker: "AAPL", ColDataQuality: "good"},
	)

	MergeQuotes(tbl, []quoteapi.Quote{
		{
			Symbol:  "AAPL",
			Price:   indicator.Some(187.25),
			PERatio: indicator.Unavailable,
		},
		{
			Symbol: "NVDA",
			Price:  indicator.Some(880.1),
		},
	})

	aapl := tbl.FindRow(ColTicker, "AAPL")
	require.NotNil(t, aapl)
	assert.Equal(t, "187.25", aapl[ColPrice])
	assert.Empty(t, aapl[ColPERatio])
	assert.Equal(t, "good", aapl[ColDataQuality], "indicator columns must survive a quote merge")

	nvda := tbl.FindRow(ColTicker, "NVDA")
	require.NotNil(t, nvda)
	assert.Equal(t, "880.1", nvda[ColPrice])
}
