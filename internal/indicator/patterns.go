package indicator

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// patternSet holds the ordered textual patterns tried for each field. The
// first pattern that matches wins. Every pattern must expose the numeric
// value as capture group 1.
type patternSet map[string][]*regexp.Regexp

// defaultPatternSpecs are the built-in extraction patterns, ordered from
// most to least specific per field. Upstream pages drift, so each field
// carries looser fallbacks after the labeled form.
var defaultPatternSpecs = map[string][]string{
	FieldRSI14: {
		`RSI\s*\(14\)[:\s]*([0-9]{1,3}\.?[0-9]*)`,
		`RSI[:\s]*([0-9]{1,3}\.?[0-9]*)`,
		`Relative\s+Strength\s+Index[:\s]*([0-9]{1,3}\.?[0-9]*)`,
	},
	FieldEMA20: {
		`EMA\s*\(20\)[:\s]*([0-9,\.]+)`,
		`EMA20[:\s]*([0-9,\.]+)`,
		`Exponential\s+Moving\s+Average\s+20[:\s]*([0-9,\.]+)`,
	},
	FieldSMA50: {
		`SMA\s*\(50\)[:\s]*([0-9,\.]+)`,
		`SMA50[:\s]*([0-9,\.]+)`,
		`Simple\s+Moving\s+Average\s+50[:\s]*([0-9,\.]+)`,
	},
	FieldMACDValue: {
		`MACD\s+Line[:\s]*([+-]?[0-9,\.]+)`,
		`MACD[:\s]*([+-]?[0-9,\.]+)`,
	},
	FieldMACDSignal: {
		`MACD\s+Signal[:\s]*([+-]?[0-9,\.]+)`,
		`Signal\s+Line[:\s]*([+-]?[0-9,\.]+)`,
	},
	FieldMACDHistogram: {
		`MACD\s+Histogram[:\s]*([+-]?[0-9,\.]+)`,
		`Histogram[:\s]*([+-]?[0-9,\.]+)`,
	},
	FieldBollingerUpper: {
		`Bollinger\s+Upper[:\s]*([0-9,\.]+)`,
		`BB\s+Upper[:\s]*([0-9,\.]+)`,
		`Upper\s+Band[:\s]*([0-9,\.]+)`,
	},
	FieldBollingerMiddle: {
		`Bollinger\s+Middle[:\s]*([0-9,\.]+)`,
		`BB\s+Middle[:\s]*([0-9,\.]+)`,
		`Middle\s+Band[:\s]*([0-9,\.]+)`,
	},
	FieldBollingerLower: {
		`Bollinger\s+Lower[:\s]*([0-9,\.]+)`,
		`BB\s+Lower[:\s]*([0-9,\.]+)`,
		`Lower\s+Band[:\s]*([0-9,\.]+)`,
	},
	FieldVolumeDaily: {
		`Daily\s+Volume[:\s]*([0-9,\.]+\s?[KMB]?)`,
		`Volume[:\s]*([0-9,\.]+\s?[KMB]?)`,
	},
	FieldADX14: {
		`ADX\s*\(14\)[:\s]*([0-9,\.]+)`,
		`ADX[:\s]*([0-9,\.]+)`,
		`Average\s+Directional\s+Index[:\s]*([0-9,\.]+)`,
	},
	FieldATR14: {
		`ATR\s*\(14\)[:\s]*([0-9,\.]+)`,
		`ATR[:\s]*([0-9,\.]+)`,
		`Average\s+True\s+Range[:\s]*([0-9,\.]+)`,
	},
	FieldWoodiesPivot: {
		`Woodie'?s?\s+Pivot[:\s]*([0-9,\.]+)`,
		`Pivot\s+Point[:\s]*([0-9,\.]+)`,
	},
	FieldWoodiesS1: {
		`S1[:\s]*([0-9,\.]+)`,
		`Support\s+1[:\s]*([0-9,\.]+)`,
	},
	FieldWoodiesS2: {
		`S2[:\s]*([0-9,\.]+)`,
		`Support\s+2[:\s]*([0-9,\.]+)`,
	},
	FieldWoodiesR1: {
		`R1[:\s]*([0-9,\.]+)`,
		`Resistance\s+1[:\s]*([0-9,\.]+)`,
	},
	FieldWoodiesR2: {
		`R2[:\s]*([0-9,\.]+)`,
		`Resistance\s+2[:\s]*([0-9,\.]+)`,
	},
}

// compilePatterns builds a patternSet from raw pattern strings.
func compilePatterns(specs map[string][]string) (patternSet, error) {
	set := make(patternSet, len(specs))
	for field, raws := range specs {
		for _, raw := range raws {
			re, err := regexp.Compile(`(?i)` + raw)
			if err != nil {
				return nil, eris.Wrapf(err, "indicator: compile pattern %q for %s", raw, field)
			}
			set[field] = append(set[field], re)
		}
	}
	return set, nil
}

// defaultPatterns returns the compiled built-in pattern set.
func defaultPatterns() patternSet {
	set, err := compilePatterns(defaultPatternSpecs)
	if err != nil {
		// Built-ins are static; a compile failure is a programming error.
		panic(err)
	}
	return set
}

// LoadPatterns reads per-field pattern overrides from a YAML file and
// merges them over the built-in set. Fields absent from the file keep
// their defaults.
func LoadPatterns(path string) (patternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "indicator: read patterns %s", path)
	}

	var wrapper struct {
		Patterns map[string][]string `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "indicator: parse patterns")
	}

	for field := range wrapper.Patterns {
		if _, ok := defaultPatternSpecs[field]; !ok {
			return nil, eris.Errorf("indicator: unknown field %q in patterns file", field)
		}
	}

	overrides, err := compilePatterns(wrapper.Patterns)
	if err != nil {
		return nil, err
	}

	set := defaultPatterns()
	for field, res := range overrides {
		set[field] = res
	}
	return set, nil
}
