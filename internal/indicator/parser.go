package indicator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Parser extracts indicator values from raw page content via ordered
// pattern matching, plus a structured pass over pivot-point tables. It
// never fails: unparseable content yields all-unavailable fields.
type Parser struct {
	patterns patternSet
}

// NewParser creates a Parser with the built-in pattern set.
func NewParser() *Parser {
	return &Parser{patterns: defaultPatterns()}
}

// NewParserWithPatterns creates a Parser using pattern overrides loaded
// from a YAML file.
func NewParserWithPatterns(path string) (*Parser, error) {
	set, err := LoadPatterns(path)
	if err != nil {
		return nil, err
	}
	return &Parser{patterns: set}, nil
}

// Parse extracts all declared fields from content. Every field is present
// in the result; unmatched ones hold the unavailable value.
func (p *Parser) Parse(content string) Fields {
	fields := NewFields()

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(content))

	// Pattern pass runs over visible text when the content parses as
	// HTML, otherwise over the raw content.
	text := content
	if docErr == nil {
		text = doc.Text()
	}

	for field, patterns := range p.patterns {
		for _, re := range patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			var (
				val float64
				ok  bool
			)
			if field == FieldVolumeDaily {
				val, ok = parseVolume(m[1])
			} else {
				val, ok = parseNumber(m[1])
			}
			if ok {
				fields[field] = Some(val)
				break
			}
		}
	}

	// Structured pass: explicit pivot labels in tabular markup are a
	// higher-confidence source than free-text patterns.
	if docErr == nil {
		p.parsePivotTables(doc, fields)
	}

	return fields
}

var pivotTableClass = regexp.MustCompile(`(?i)pivot|technical`)

// parsePivotTables scans tables whose class mentions pivots or technicals
// for labeled pivot rows, overwriting pattern-matched values when found.
func (p *Parser) parsePivotTables(doc *goquery.Document, fields Fields) {
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		class, _ := table.Attr("class")
		if !pivotTableClass.MatchString(class) {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
			val, ok := parseNumber(strings.TrimSpace(cells.Eq(1).Text()))
			if !ok {
				return
			}

			switch {
			case strings.Contains(label, "pivot") || strings.Contains(label, "pp"):
				fields[FieldWoodiesPivot] = Some(val)
			case strings.Contains(label, "s1") || strings.Contains(label, "support 1"):
				fields[FieldWoodiesS1] = Some(val)
			case strings.Contains(label, "s2") || strings.Contains(label, "support 2"):
				fields[FieldWoodiesS2] = Some(val)
			case strings.Contains(label, "r1") || strings.Contains(label, "resistance 1"):
				fields[FieldWoodiesR1] = Some(val)
			case strings.Contains(label, "r2") || strings.Contains(label, "resistance 2"):
				fields[FieldWoodiesR2] = Some(val)
			}
		})
	})
}

// parseNumber parses a matched numeric string, tolerating thousands
// separators and percent signs.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		zap.L().Debug("indicator: unparseable numeric match", zap.String("value", s))
		return 0, false
	}
	return val, true
}

// parseVolume parses a volume string with optional K/M/B magnitude suffix
// into an absolute count.
func parseVolume(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1e3
		s = strings.TrimSpace(s[:len(s)-1])
	case 'M', 'm':
		mult = 1e6
		s = strings.TrimSpace(s[:len(s)-1])
	case 'B', 'b':
		mult = 1e9
		s = strings.TrimSpace(s[:len(s)-1])
	}

	val, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return val * mult, true
}
