package indicator

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func fieldsWithMatches(n int) Fields {
	f := NewFields()
	for i, name := range FieldNames() {
		if i >= n {
			break
		}
		f[name] = Some(float64(i + 1))
	}
	return f
}

func TestAssemble_QualityFromMatchCount(t *testing.T) {
	tests := []struct {
		matches int
		want    Quality
	}{
		{17, QualityExcellent},
		{10, QualityExcellent},
		{9, QualityGood},
		{3, QualityGood},
		{2, QualityPartial},
		{1, QualityPartial},
	}
	for _, tt := range tests {
		rec := Assemble("AAPL", "https://example/aapl", PathDirect, fieldsWithMatches(tt.matches))
		if rec.Quality != tt.want {
			t.Errorf("%d matches: quality %q, want %q", tt.matches, rec.Quality, tt.want)
		}
		if rec.Notes != "" {
			t.Errorf("%d matches on direct path: unexpected notes %q", tt.matches, rec.Notes)
		}
	}
}

func TestAssemble_ZeroMatchesEscalatesToMock(t *testing.T) {
	rec := Assemble("ZZZZ", "https://example/zzzz", PathDirect, NewFields())
	if rec.Quality != QualityMock {
		t.Fatalf("quality %q, want %q", rec.Quality, QualityMock)
	}
	if !reflect.DeepEqual(rec.Fields, MockIndicators("ZZZZ")) {
		t.Error("escalated record should carry deterministic mock fields")
	}
	if rec.Notes == "" {
		t.Error("mock escalation must explain itself in notes")
	}
}

func TestAssemble_MockPath(t *testing.T) {
	rec := Assemble("ZZZZ", "https://example/zzzz", PathMock, nil)
	if rec.Quality != QualityMock {
		t.Fatalf("quality %q, want %q", rec.Quality, QualityMock)
	}
	if !strings.Contains(rec.Notes, "network") {
		t.Errorf("mock notes should mention the network condition, got %q", rec.Notes)
	}
	for _, name := range FieldNames() {
		if !rec.Fields[name].Valid {
			t.Errorf("mock record field %s unavailable", name)
		}
	}
}

func TestAssemble_BrowserPathAnnotates(t *testing.T) {
	rec := Assemble("AAPL", "https://example/aapl", PathBrowser, fieldsWithMatches(5))
	if rec.Quality != QualityGood {
		t.Errorf("quality %q, want %q", rec.Quality, QualityGood)
	}
	if !strings.Contains(rec.Notes, "browser") {
		t.Errorf("browser path must be named in notes, got %q", rec.Notes)
	}
}

func TestAssemble_APIPath(t *testing.T) {
	rec := Assemble("AAPL", "quotefeed", PathAPI, fieldsWithMatches(4))
	if rec.Quality != QualityAPI {
		t.Errorf("quality %q, want %q", rec.Quality, QualityAPI)
	}
}

func TestFallbackRecord(t *testing.T) {
	rec := FallbackRecord("BADX", "https://example/badx", errors.New("parser exploded"))
	if rec.Quality != QualityFallback {
		t.Fatalf("quality %q, want %q", rec.Quality, QualityFallback)
	}
	if !strings.Contains(rec.Notes, "parser exploded") {
		t.Errorf("notes should carry the cause, got %q", rec.Notes)
	}
	if len(rec.Fields) != 17 {
		t.Errorf("%d fields, want 17", len(rec.Fields))
	}
	for _, name := range FieldNames() {
		if rec.Fields[name].Valid {
			t.Errorf("fallback field %s should be unavailable", name)
		}
	}
}
