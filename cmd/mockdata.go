package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/marketdesk/indicators-cli/internal/batch"
	"github.com/marketdesk/indicators-cli/internal/indicator"
	"github.com/marketdesk/indicators-cli/internal/table"
)

var mockdataOutput string

var mockdataCmd = &cobra.Command{
	Use:   "mockdata [ticker...]",
	Short: "Generate deterministic mock indicators without touching the network",
	Long:  "Writes deterministic pseudo-indicator records for the given tickers (or all tickers in the URL file) into the output workbook. Useful for exercising downstream consumers offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		output := mockdataOutput
		if output == "" {
			output = cfg.Files.OutputFile
		}

		tickers := args
		if len(tickers) == 0 {
			urls, err := table.Load(cfg.Files.URLFile, table.ColTicker, table.ColURL)
			if err != nil {
				return eris.Wrapf(err, "load url file %s", cfg.Files.URLFile)
			}
			for _, item := range batch.ItemsFromTable(urls) {
				tickers = append(tickers, item.Ticker)
			}
		}
		if len(tickers) == 0 {
			return eris.New("mockdata: no tickers given and url file is empty")
		}

		records := make([]indicator.Record, 0, len(tickers))
		for _, ticker := range tickers {
			records = append(records, indicator.Assemble(ticker, "", indicator.PathMock, nil))
		}

		out, err := table.LoadOrEmpty(output, table.ColTicker)
		if err != nil {
			return eris.Wrapf(err, "load output file %s", output)
		}
		if _, err := table.Backup(output); err != nil {
			return eris.Wrap(err, "backup output file")
		}
		table.MergeRecords(out, records)
		if err := out.Save(output); err != nil {
			return eris.Wrapf(err, "save output file %s", output)
		}

		fmt.Printf("Wrote %d mock records to %s\n", len(records), output)
		return nil
	},
}

func init() {
	mockdataCmd.Flags().StringVarP(&mockdataOutput, "output", "o", "", "Excel file to merge mock records into (default from config)")
	rootCmd.AddCommand(mockdataCmd)
}
