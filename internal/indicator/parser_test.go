package indicator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse_LabeledIndicators(t *testing.T) {
	content := `
		<html><body>
		RSI (14): 55.3
		EMA (20): 182.40
		SMA (50): 175.12
		MACD Line: -1.25
		Bollinger Upper: 195.00
		Bollinger Lower: 170.00
		ADX (14): 24.8
		ATR (14): 3.42
		</body></html>`

	p := NewParser()
	fields := p.Parse(content)

	want := map[string]float64{
		FieldRSI14:          55.3,
		FieldEMA20:          182.40,
		FieldSMA50:          175.12,
		FieldMACDValue:      -1.25,
		FieldBollingerUpper: 195.00,
		FieldBollingerLower: 170.00,
		FieldADX14:          24.8,
		FieldATR14:          3.42,
	}
	for field, val := range want {
		got := fields[field]
		if !got.Valid {
			t.Errorf("%s: unavailable, want %v", field, val)
			continue
		}
		if got.Float64 != val {
			t.Errorf("%s = %v, want %v", field, got.Float64, val)
		}
	}
}

func TestParse_VolumeSuffixes(t *testing.T) {
	tests := []struct {
		content string
		want    float64
	}{
		{"Volume: 2.5M", 2500000},
		{"Volume: 850K", 850000},
		{"Volume: 1.2B", 1200000000},
		{"Volume: 123,456", 123456},
		{"Daily Volume: 3M", 3000000},
	}
	p := NewParser()
	for _, tt := range tests {
		fields := p.Parse(tt.content)
		got := fields[FieldVolumeDaily]
		if !got.Valid {
			t.Errorf("Parse(%q): volume unavailable, want %v", tt.content, tt.want)
			continue
		}
		if got.Float64 != tt.want {
			t.Errorf("Parse(%q): volume = %v, want %v", tt.content, got.Float64, tt.want)
		}
	}
}

func TestParse_PivotTableOverridesPatterns(t *testing.T) {
	// Free text says one thing, the structured table another; the table
	// is the higher-confidence source and must win.
	content := `
		<html><body>
		<p>Pivot Point: 100.00</p>
		<table class="pivotTable">
			<tr><td>Pivot</td><td>150.25</td></tr>
			<tr><td>S1</td><td>145.10</td></tr>
			<tr><td>S2</td><td>140.00</td></tr>
			<tr><td>R1</td><td>155.40</td></tr>
			<tr><td>R2</td><td>160.80</td></tr>
		</table>
		</body></html>`

	p := NewParser()
	fields := p.Parse(content)

	want := map[string]float64{
		FieldWoodiesPivot: 150.25,
		FieldWoodiesS1:    145.10,
		FieldWoodiesS2:    140.00,
		FieldWoodiesR1:    155.40,
		FieldWoodiesR2:    160.80,
	}
	for field, val := range want {
		got := fields[field]
		if !got.Valid || got.Float64 != val {
			t.Errorf("%s = %+v, want %v", field, got, val)
		}
	}
}

func TestParse_IgnoresUnrelatedTables(t *testing.T) {
	// The pivot table's value must win even when an unrelated table later
	// in the document carries the same label.
	content := `
		<html><body>
		<table class="pivot-levels">
			<tr><td>S1</td><td>145.10</td></tr>
		</table>
		<table class="holdings">
			<tr><td>S1</td><td>999.99</td></tr>
		</table>
		</body></html>`

	p := NewParser()
	fields := p.Parse(content)
	got := fields[FieldWoodiesS1]
	if !got.Valid || got.Float64 != 145.10 {
		t.Errorf("S1 = %+v, want 145.10 from the pivot table only", got)
	}
}

func TestParse_MalformedContent_AllUnavailable(t *testing.T) {
	p := NewParser()
	for _, content := range []string{"", "<<<<>>>> garbage \x00", "just words, no numbers"} {
		fields := p.Parse(content)
		if len(fields) != 17 {
			t.Fatalf("Parse(%q): %d fields, want 17", content, len(fields))
		}
		if n := fields.MatchCount(); n != 0 {
			t.Errorf("Parse(%q): %d matches, want 0", content, n)
		}
	}
}

func TestParse_AllFieldsAlwaysPresent(t *testing.T) {
	p := NewParser()
	fields := p.Parse("RSI (14): 44.1")
	for _, name := range FieldNames() {
		if _, ok := fields[name]; !ok {
			t.Errorf("missing field key %s", name)
		}
	}
}

func TestLoadPatterns_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := "patterns:\n  RSI_14:\n    - 'Strength[:\\s]*([0-9.]+)'\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewParserWithPatterns(path)
	if err != nil {
		t.Fatalf("NewParserWithPatterns: %v", err)
	}

	fields := p.Parse("Strength: 61.5")
	if got := fields[FieldRSI14]; !got.Valid || got.Float64 != 61.5 {
		t.Errorf("overridden RSI pattern: got %+v, want 61.5", got)
	}

	// Untouched fields keep their defaults.
	fields = p.Parse("ADX (14): 31.0")
	if got := fields[FieldADX14]; !got.Valid || got.Float64 != 31.0 {
		t.Errorf("default ADX pattern lost after override: got %+v", got)
	}
}

func TestLoadPatterns_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte("patterns:\n  Nonsense:\n    - 'x([0-9]+)'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewParserWithPatterns(path); err == nil {
		t.Error("expected error for unknown field in patterns file")
	}
}
