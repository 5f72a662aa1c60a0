// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Sources []model.DataSource `mapstructure:"sources"`
	Crawl   CrawlConfig        `mapstructure:"crawl"`
	HTTP    HTTPConfig         `mapstructure:"http"`
	Output  OutputConfig       `mapstructure:"output"`
	Clean   CleanConfig        `mapstructure:"clean"`
	Logging LoggingConfig      `mapstructure:"logging"`
}

// CrawlConfig governs search parameters and per-record retry behavior.
type CrawlConfig struct {
	Keywords            []string `mapstructure:"keywords"`
	StartDate           string   `mapstructure:"start_date"`
	EndDate             string   `mapstructure:"end_date"`
	MaxPages            int      `mapstructure:"max_pages"`
	RequestDelaySeconds int      `mapstructure:"request_delay_seconds"`
	MaxPolicyRetries    int      `mapstructure:"max_policy_retries"`
	PolicyRetryDelaySec int      `mapstructure:"policy_retry_delay_seconds"`
}

// HTTPConfig configures the access layer: retries, timeouts, rotation.
type HTTPConfig struct {
	MaxRetries             int      `mapstructure:"max_retries"`
	RetryDelaySeconds      int      `mapstructure:"retry_delay_seconds"`
	SearchTimeoutSeconds   int      `mapstructure:"search_timeout_seconds"`
	DownloadTimeoutSeconds int      `mapstructure:"download_timeout_seconds"`
	SessionRotateInterval  int      `mapstructure:"session_rotate_interval"`
	PerPage                int      `mapstructure:"per_page"`
	UseProxy               bool     `mapstructure:"use_proxy"`
	Proxies                []string `mapstructure:"proxies"`
}

// OutputConfig selects which artifacts to write and where.
type OutputConfig struct {
	Dir                 string  `mapstructure:"dir"`
	SaveJSON            bool    `mapstructure:"save_json"`
	SaveMarkdown        bool    `mapstructure:"save_markdown"`
	SaveDocx            bool    `mapstructure:"save_docx"`
	DownloadAttachments bool    `mapstructure:"download_attachments"`
	TitleSimilarity     float64 `mapstructure:"title_similarity"`
}

// CleanConfig tunes the content cleaning pipeline.
type CleanConfig struct {
	MetadataRunThreshold int `mapstructure:"metadata_run_threshold"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POLICYCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.keywords", []string{"矿产资源"})
	v.SetDefault("crawl.max_pages", 5)
	v.SetDefault("crawl.request_delay_seconds", 1)
	v.SetDefault("crawl.max_policy_retries", 0)
	v.SetDefault("crawl.policy_retry_delay_seconds", 5)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_delay_seconds", 5)
	v.SetDefault("http.search_timeout_seconds", 30)
	v.SetDefault("http.download_timeout_seconds", 60)
	v.SetDefault("http.session_rotate_interval", 50)
	v.SetDefault("http.per_page", 20)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.save_json", true)
	v.SetDefault("output.save_markdown", true)
	v.SetDefault("output.save_docx", false)
	v.SetDefault("output.download_attachments", true)
	v.SetDefault("output.title_similarity", 0.6)
	v.SetDefault("clean.metadata_run_threshold", 6)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. An empty keyword
// list is valid and means an unrestricted crawl.
func (c Config) Validate() error {
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.Crawl.MaxPolicyRetries < 0 {
		return fmt.Errorf("crawl.max_policy_retries must be >= 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.SearchTimeoutSeconds <= 0 {
		return fmt.Errorf("http.search_timeout_seconds must be > 0")
	}
	if c.HTTP.SessionRotateInterval <= 0 {
		return fmt.Errorf("http.session_rotate_interval must be > 0")
	}
	if c.HTTP.UseProxy && len(c.HTTP.Proxies) == 0 {
		return fmt.Errorf("http.proxies must be set when use_proxy is enabled")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Output.TitleSimilarity < 0 || c.Output.TitleSimilarity > 1 {
		return fmt.Errorf("output.title_similarity must be in [0, 1]")
	}
	for i, src := range c.Sources {
		if src.Name == "" || src.BaseURL == "" {
			return fmt.Errorf("sources[%d] must set name and base_url", i)
		}
	}
	return nil
}

// RetryDelay converts the HTTP retry delay into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

// RequestDelay converts the per-record pacing delay into a duration.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.Crawl.RequestDelaySeconds) * time.Second
}

// PolicyRetryDelay converts the per-record retry wait into a duration.
func (c Config) PolicyRetryDelay() time.Duration {
	return time.Duration(c.Crawl.PolicyRetryDelaySec) * time.Second
}
