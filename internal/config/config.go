package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Files     FilesConfig     `yaml:"files" mapstructure:"files"`
	Quota     QuotaConfig     `yaml:"quota" mapstructure:"quota"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	QuoteAPI  QuoteAPIConfig  `yaml:"quote_api" mapstructure:"quote_api"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Indicator IndicatorConfig `yaml:"indicator" mapstructure:"indicator"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FilesConfig holds the input and output table paths.
type FilesConfig struct {
	URLFile    string `yaml:"url_file" mapstructure:"url_file"`
	OutputFile string `yaml:"output_file" mapstructure:"output_file"`
}

// QuotaConfig configures the rolling-window request quota for the upstream API.
type QuotaConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	CooldownSecs      int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// FetchConfig configures the direct HTTP fetch strategy.
type FetchConfig struct {
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMinSecs float64 `yaml:"delay_min_secs" mapstructure:"delay_min_secs"`
	DelayMaxSecs float64 `yaml:"delay_max_secs" mapstructure:"delay_max_secs"`
}

// BrowserConfig configures the rendered-browser fallback strategy.
type BrowserConfig struct {
	Enabled         bool `yaml:"enabled" mapstructure:"enabled"`
	PageTimeoutSecs int  `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	SettleSecs      int  `yaml:"settle_secs" mapstructure:"settle_secs"`
}

// QuoteAPIConfig holds upstream quote API settings.
type QuoteAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	ProgressEvery int `yaml:"progress_every" mapstructure:"progress_every"`
}

// IndicatorConfig configures the indicator parser.
type IndicatorConfig struct {
	PatternsFile string `yaml:"patterns_file" mapstructure:"patterns_file"`
}

// RunLogConfig configures the batch run history store.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout returns the direct fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PageTimeout returns the browser page load timeout as a duration.
func (c BrowserConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSecs) * time.Second
}

// Cooldown returns the quota cooldown as a duration.
func (c QuotaConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INDICATORS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("files.url_file", "URL.xlsx")
	v.SetDefault("files.output_file", "tickers.xlsx")
	v.SetDefault("quota.requests_per_minute", 5)
	v.SetDefault("quota.cooldown_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.delay_min_secs", 0.5)
	v.SetDefault("fetch.delay_max_secs", 2.0)
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.page_timeout_secs", 30)
	v.SetDefault("browser.settle_secs", 2)
	v.SetDefault("quote_api.base_url", "https://api.quotefeed.io/v1")
	v.SetDefault("batch.progress_every", 10)
	v.SetDefault("runlog.path", "runs.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
