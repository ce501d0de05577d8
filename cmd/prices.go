package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/indicators-cli/internal/quoteapi"
	"github.com/marketdesk/indicators-cli/internal/ratelimit"
	"github.com/marketdesk/indicators-cli/internal/table"
)

var pricesFile string

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Fetch price snapshots for all tickers in the tickers file",
	Long:  "Fetches current price, 52-week high/low, market cap, and P/E ratio from the quote API for every ticker in the workbook, and writes the values back into it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path := pricesFile
		if path == "" {
			path = cfg.Files.OutputFile
		}

		tbl, err := table.Load(path, table.ColTicker)
		if err != nil {
			return eris.Wrapf(err, "load tickers file %s", path)
		}

		window := ratelimit.NewWindow(cfg.Quota.RequestsPerMinute)
		client := quoteapi.New(quoteapi.Options{
			BaseURL:  cfg.QuoteAPI.BaseURL,
			Key:      cfg.QuoteAPI.Key,
			Window:   window,
			Cooldown: cfg.Quota.Cooldown(),
		})
		if !client.Enabled() {
			return eris.New("prices: no API key configured (set INDICATORS_QUOTE_API_KEY)")
		}

		var quotes []quoteapi.Quote
		total := len(tbl.Rows)
		for i, row := range tbl.Rows {
			if err := ctx.Err(); err != nil {
				zap.L().Warn("prices: interrupted, keeping partial results",
					zap.Int("fetched", len(quotes)),
					zap.Int("total", total),
				)
				break
			}

			ticker := strings.TrimSpace(row[table.ColTicker])
			if ticker == "" {
				continue
			}

			q, err := client.Quote(ctx, ticker)
			if err != nil {
				if eris.Is(err, quoteapi.ErrKeyRejected) || eris.Is(err, quoteapi.ErrDisabled) {
					return eris.Wrap(err, "prices")
				}
				zap.L().Warn("prices: quote failed, skipping ticker",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				continue
			}
			quotes = append(quotes, *q)

			fmt.Printf("  %d/%d %s: %s\n", i+1, total, ticker, displayPrice(q))
		}

		if len(quotes) == 0 {
			fmt.Fprintln(os.Stderr, "No quotes fetched.")
			return nil
		}

		backupPath, err := table.Backup(path)
		if err != nil {
			return eris.Wrap(err, "backup tickers file")
		}
		if backupPath != "" {
			zap.L().Info("created backup", zap.String("path", backupPath))
		}

		table.MergeQuotes(tbl, quotes)
		if err := tbl.Save(path); err != nil {
			return eris.Wrapf(err, "save tickers file %s", path)
		}

		fmt.Printf("Updated %d tickers in %s\n", len(quotes), path)
		return nil
	},
}

func displayPrice(q *quoteapi.Quote) string {
	if !q.Price.Valid {
		return "no price"
	}
	return fmt.Sprintf("$%.2f", q.Price.Float64)
}

func init() {
	pricesCmd.Flags().StringVarP(&pricesFile, "file", "f", "", "Excel file with a Ticker column (default from config)")
	rootCmd.AddCommand(pricesCmd)
}
