package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/indicators-cli/internal/batch"
	"github.com/marketdesk/indicators-cli/internal/fetch"
	"github.com/marketdesk/indicators-cli/internal/headers"
	"github.com/marketdesk/indicators-cli/internal/indicator"
	"github.com/marketdesk/indicators-cli/internal/quoteapi"
	"github.com/marketdesk/indicators-cli/internal/ratelimit"
	"github.com/marketdesk/indicators-cli/internal/runlog"
	"github.com/marketdesk/indicators-cli/internal/table"
)

var (
	extractInput  string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract technical indicators for all tickers in the URL file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input := extractInput
		if input == "" {
			input = cfg.Files.URLFile
		}
		output := extractOutput
		if output == "" {
			output = cfg.Files.OutputFile
		}

		// Validate the input before any network work starts.
		urls, err := table.Load(input, table.ColTicker, table.ColURL)
		if err != nil {
			return eris.Wrapf(err, "load url file %s", input)
		}
		items := batch.ItemsFromTable(urls)
		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No tickers to process.")
			return nil
		}

		window := ratelimit.NewWindow(cfg.Quota.RequestsPerMinute)
		cooldown := cfg.Quota.Cooldown()

		rotator := headers.NewRotator(time.Now().UnixNano())
		direct := fetch.NewDirect(rotator, fetch.DirectOptions{
			Timeout:    cfg.Fetch.Timeout(),
			MaxRetries: cfg.Fetch.MaxRetries,
		})

		check := fetch.NewNetCheck()
		browser := fetch.NewBrowser(fetch.BrowserOptions{
			Enabled:     cfg.Browser.Enabled,
			PageTimeout: cfg.Browser.PageTimeout(),
			Settle:      time.Duration(cfg.Browser.SettleSecs) * time.Second,
		}, check)
		defer browser.Close()

		api := fetch.NewAPI(quoteapi.New(quoteapi.Options{
			BaseURL:  cfg.QuoteAPI.BaseURL,
			Key:      cfg.QuoteAPI.Key,
			Window:   window,
			Cooldown: cooldown,
		}))

		delay := fetch.NewDelay(
			time.Duration(cfg.Fetch.DelayMinSecs*float64(time.Second)),
			time.Duration(cfg.Fetch.DelayMaxSecs*float64(time.Second)),
		)
		chain := fetch.NewChain(delay, direct, browser, api, fetch.Mock{})

		parser := indicator.NewParser()
		if cfg.Indicator.PatternsFile != "" {
			parser, err = indicator.NewParserWithPatterns(cfg.Indicator.PatternsFile)
			if err != nil {
				return eris.Wrapf(err, "load patterns %s", cfg.Indicator.PatternsFile)
			}
		}

		runner := batch.NewRunner(chain, parser, cfg.Batch.ProgressEvery)
		report, runErr := runner.Run(ctx, items)

		// Persist whatever was collected, interrupted or not.
		if len(report.Records) > 0 {
			if err := persistReport(report, output); err != nil {
				return err
			}
			recordRun(report, output)
		}

		printSummary(report, output)
		return runErr
	},
}

// persistReport merges the run's records into the output workbook, backing
// up the previous version first.
func persistReport(report *batch.Report, output string) error {
	out, err := table.LoadOrEmpty(output, table.ColTicker)
	if err != nil {
		return eris.Wrapf(err, "load output file %s", output)
	}

	backupPath, err := table.Backup(output)
	if err != nil {
		return eris.Wrap(err, "backup output file")
	}
	if backupPath != "" {
		zap.L().Info("created backup", zap.String("path", backupPath))
	}

	table.MergeRecords(out, report.Records)
	if err := out.Save(output); err != nil {
		return eris.Wrapf(err, "save output file %s", output)
	}
	zap.L().Info("saved results",
		zap.String("path", output),
		zap.Int("records", len(report.Records)),
	)
	return nil
}

// recordRun appends the run to the local history. Best effort: a broken
// history database must not fail a run that already saved its results.
func recordRun(report *batch.Report, output string) {
	store, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		zap.L().Warn("run history unavailable", zap.Error(err))
		return
	}
	defer store.Close() //nolint:errcheck

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		zap.L().Warn("run history migrate failed", zap.Error(err))
		return
	}
	if err := store.Record(ctx, runlog.Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		Duration:   report.Duration,
		Total:      len(report.Records),
		Quality:    report.Quality,
		OutputFile: output,
	}); err != nil {
		zap.L().Warn("run history record failed", zap.Error(err))
	}
}

func printSummary(report *batch.Report, output string) {
	fmt.Printf("Run %s: %d/%d tickers processed in %s\n",
		report.RunID, len(report.Records), report.Total, report.Duration.Round(time.Millisecond))
	for _, tier := range []string{"excellent", "good", "partial", "api", "mock", "fallback"} {
		if n := report.Quality[tier]; n > 0 {
			fmt.Printf("  %-10s %d\n", tier, n)
		}
	}
	fmt.Printf("Results written to %s\n", output)
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Excel file with Ticker and URL columns (default from config)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Excel file to merge results into (default from config)")
	rootCmd.AddCommand(extractCmd)
}
