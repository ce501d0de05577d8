// Package batch orchestrates one extraction run: sequential per-ticker
// fetch, parse, assemble, with per-item failure containment so one bad
// ticker never sinks the batch.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marketdesk/indicators-cli/internal/fetch"
	"github.com/marketdesk/indicators-cli/internal/indicator"
)

// Item is one ticker to process.
type Item struct {
	Ticker string
	URL    string
}

// Fetcher resolves content for a target. Satisfied by *fetch.Chain.
type Fetcher interface {
	Fetch(ctx context.Context, target fetch.Target) (*fetch.Content, error)
}

// Report summarizes one run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Quality   map[string]int // quality tier -> record count
	Records   []indicator.Record
}

// Runner drives the per-ticker pipeline.
type Runner struct {
	Fetcher       Fetcher
	Parser        *indicator.Parser
	ProgressEvery int
}

// NewRunner creates a Runner.
func NewRunner(fetcher Fetcher, parser *indicator.Parser, progressEvery int) *Runner {
	if progressEvery <= 0 {
		progressEvery = 10
	}
	return &Runner{Fetcher: fetcher, Parser: parser, ProgressEvery: progressEvery}
}

// Run processes items sequentially. Every item yields exactly one record;
// unexpected failures become fallback records. On cancellation the partial
// report is returned alongside the context error so the caller can still
// persist what was collected.
func (r *Runner) Run(ctx context.Context, items []Item) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Total:     len(items),
		Quality:   make(map[string]int),
	}

	zap.L().Info("batch: starting run",
		zap.String("run_id", report.RunID),
		zap.Int("tickers", len(items)),
	)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(report.StartedAt)
			zap.L().Warn("batch: run interrupted, keeping partial results",
				zap.String("run_id", report.RunID),
				zap.Int("processed", len(report.Records)),
				zap.Int("total", len(items)),
			)
			return report, eris.Wrap(err, "batch: interrupted")
		}

		rec := r.processItem(ctx, item)
		report.Records = append(report.Records, rec)
		report.Quality[string(rec.Quality)]++

		if (i+1)%r.ProgressEvery == 0 {
			zap.L().Info("batch: progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(items)),
			)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	zap.L().Info("batch: run complete",
		zap.String("run_id", report.RunID),
		zap.Int("tickers", report.Total),
		zap.Duration("duration", report.Duration),
		zap.Any("quality", report.Quality),
	)
	return report, nil
}

// processItem runs the fetch-parse-assemble pipeline for one ticker. A
// panic in any stage is contained to a fallback record for that ticker.
func (r *Runner) processItem(ctx context.Context, item Item) (rec indicator.Record) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("batch: panic while processing ticker",
				zap.String("ticker", item.Ticker),
				zap.Any("panic", p),
			)
			rec = indicator.FallbackRecord(item.Ticker, item.URL, eris.Errorf("panic: %v", p))
		}
	}()

	zap.L().Debug("batch: processing ticker",
		zap.String("ticker", item.Ticker),
		zap.String("url", item.URL),
	)

	content, err := r.Fetcher.Fetch(ctx, fetch.Target{Ticker: item.Ticker, URL: item.URL})
	if err != nil {
		zap.L().Error("batch: fetch failed for ticker",
			zap.String("ticker", item.Ticker),
			zap.Error(err),
		)
		return indicator.FallbackRecord(item.Ticker, item.URL, err)
	}

	return r.assemble(item, content)
}

func (r *Runner) assemble(item Item, content *fetch.Content) indicator.Record {
	switch content.Source {
	case fetch.SourceMock:
		return indicator.Assemble(item.Ticker, item.URL, indicator.PathMock, nil)

	case fetch.SourceAPI:
		fields, err := indicator.DecodeAPIFields(content.Body)
		if err != nil {
			zap.L().Error("batch: undecodable api payload",
				zap.String("ticker", item.Ticker),
				zap.Error(err),
			)
			return indicator.FallbackRecord(item.Ticker, item.URL, err)
		}
		return indicator.Assemble(item.Ticker, item.URL, indicator.PathAPI, fields)

	default:
		path := indicator.PathDirect
		if content.Source == "browser" {
			path = indicator.PathBrowser
		}
		fields := r.Parser.Parse(content.Body)
		return indicator.Assemble(item.Ticker, item.URL, path, fields)
	}
}
