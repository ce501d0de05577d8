package indicator

import (
	"fmt"
	"time"
)

// Quality is the coarse trust tier of an extracted record.
type Quality string

const (
	QualityExcellent Quality = "excellent" // nearly all fields matched
	QualityGood      Quality = "good"      // enough fields to be useful
	QualityPartial   Quality = "partial"   // one or two fields matched
	QualityMock      Quality = "mock"      // deterministic synthetic data
	QualityAPI       Quality = "api"       // values came from the quote API
	QualityFallback  Quality = "fallback"  // unexpected processing failure
)

// Record is the assembled per-ticker result. Immutable after construction;
// merged into the persisted table keyed by Ticker.
type Record struct {
	Ticker    string
	Source    string
	Fields    Fields
	Quality   Quality
	Notes     string
	CheckedAt time.Time
}

// Path identifies which fetch path ultimately produced content.
type Path int

const (
	PathDirect Path = iota
	PathBrowser
	PathMock
	PathAPI
)

// qualityFromMatches maps a pattern match count to a quality tier.
func qualityFromMatches(n int) Quality {
	switch {
	case n >= 10:
		return QualityExcellent
	case n >= 3:
		return QualityGood
	default:
		return QualityPartial
	}
}

// Assemble builds the record for a ticker from parsed or mocked fields.
// Tagging priority: mock data wins, then the browser path annotates its
// fallback, then quality derives purely from match count. Zero matches on
// a real path escalate to mock so downstream consumers never see an empty
// record.
func Assemble(ticker, source string, path Path, fields Fields) Record {
	rec := Record{
		Ticker:    ticker,
		Source:    source,
		Fields:    fields,
		CheckedAt: time.Now(),
	}

	switch path {
	case PathMock:
		rec.Fields = MockIndicators(ticker)
		rec.Quality = QualityMock
		rec.Notes = "Mock data used due to network unavailability"
		return rec
	case PathAPI:
		rec.Quality = QualityAPI
		return rec
	}

	matches := fields.MatchCount()
	if matches == 0 {
		rec.Fields = MockIndicators(ticker)
		rec.Quality = QualityMock
		rec.Notes = "Mock data used: content fetched but no indicators recognized"
		return rec
	}

	rec.Quality = qualityFromMatches(matches)
	if path == PathBrowser {
		rec.Notes = "Used headless browser fallback"
	}
	return rec
}

// FallbackRecord builds the record for a ticker whose processing failed
// unexpectedly. All fields are present but unavailable; the note carries
// the concrete reason so operators can tell environment problems from
// content drift.
func FallbackRecord(ticker, source string, cause error) Record {
	return Record{
		Ticker:    ticker,
		Source:    source,
		Fields:    NewFields(),
		Quality:   QualityFallback,
		Notes:     fmt.Sprintf("Processing error: %v", cause),
		CheckedAt: time.Now(),
	}
}
