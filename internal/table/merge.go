package table

import (
	"strconv"
	"time"

	"github.com/marketdesk/indicators-cli/internal/indicator"
	"github.com/marketdesk/indicators-cli/internal/quoteapi"
)

// Workbook column names shared with downstream consumers of the output
// file. Keep in sync with whatever reads tickers.xlsx.
const (
	ColTicker      = "Ticker"
	ColURL         = "URL"
	ColSourceURL   = "source_url"
	ColLastChecked = "indicator_last_checked"
	ColDataQuality = "data_quality"
	ColNotes       = "notes"
)

// RecordColumns returns the columns a merge writes, in output order.
func RecordColumns() []string {
	cols := []string{ColTicker, ColSourceURL, ColLastChecked, ColDataQuality, ColNotes}
	return append(cols, indicator.FieldNames()...)
}

// MergeRecords upserts extraction records into the table keyed by Ticker.
// Only the columns this pipeline produces are written; any other columns
// on an existing row survive untouched. Tickers not yet in the table are
// appended.
func MergeRecords(t *Table, records []indicator.Record) {
	for _, col := range RecordColumns() {
		t.EnsureColumn(col)
	}

	for _, rec := range records {
		row := t.FindRow(ColTicker, rec.Ticker)
		if row == nil {
			row = map[string]string{ColTicker: rec.Ticker}
			t.Rows = append(t.Rows, row)
		}
		row[ColSourceURL] = rec.Source
		row[ColLastChecked] = rec.CheckedAt.Format(time.RFC3339)
		row[ColDataQuality] = string(rec.Quality)
		row[ColNotes] = rec.Notes
		for _, name := range indicator.FieldNames() {
			row[name] = formatValue(rec.Fields[name])
		}
	}
}

// formatValue renders a tagged optional for a cell. Unavailable values
// become empty cells, never a sentinel string in a numeric column.
func formatValue(v indicator.Value) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// Quote column names, matching what downstream consumers of the workbook
// already expect.
const (
	ColPrice     = "Price"
	ColHigh52W   = "52w_High"
	ColLow52W    = "52w_Low"
	ColMarketCap = "MarketCap"
	ColPERatio   = "PE_Ratio"
)

// QuoteColumns returns the columns a quote merge writes, in output order.
func QuoteColumns() []string {
	return []string{ColTicker, ColPrice, ColHigh52W, ColLow52W, ColMarketCap, ColPERatio}
}

// MergeQuotes upserts price snapshots into the table keyed by Ticker,
// with the same column discipline as MergeRecords.
func MergeQuotes(t *Table, quotes []quoteapi.Quote) {
	for _, col := range QuoteColumns() {
		t.EnsureColumn(col)
	}

	for _, q := range quotes {
		row := t.FindRow(ColTicker, q.Symbol)
		if row == nil {
			row = map[string]string{ColTicker: q.Symbol}
			t.Rows = append(t.Rows, row)
		}
		row[ColPrice] = formatValue(q.Price)
		row[ColHigh52W] = formatValue(q.High52W)
		row[ColLow52W] = formatValue(q.Low52W)
		row[ColMarketCap] = formatValue(q.MarketCap)
		row[ColPERatio] = formatValue(q.PERatio)
	}
}
