package batch

import (
	"strings"

	"github.com/marketdesk/indicators-cli/internal/table"
)

// ItemsFromTable converts a loaded URL workbook into run items. Rows with
// a blank ticker are skipped; a blank URL is kept so the API and mock
// strategies can still serve the ticker.
func ItemsFromTable(t *table.Table) []Item {
	items := make([]Item, 0, len(t.Rows))
	for _, row := range t.Rows {
		ticker := strings.TrimSpace(row[table.ColTicker])
		if ticker == "" {
			continue
		}
		items = append(items, Item{
			Ticker: ticker,
			URL:    strings.TrimSpace(row[table.ColURL]),
		})
	}
	return items
}
