package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
sources:
  - name: 自然资源部
    base_url: https://gi.mnr.gov.cn
    search_api: https://search.mnr.gov.cn/was5/web/search
    channel_id: "200072"
    level: 自然资源部
    enabled: true
crawl:
  keywords: ["矿产资源", "耕地保护"]
  start_date: "2023-01-01"
  end_date: "2023-12-31"
  max_pages: 10
  request_delay_seconds: 2
  max_policy_retries: 2
  policy_retry_delay_seconds: 3
http:
  max_retries: 5
  retry_delay_seconds: 10
  search_timeout_seconds: 45
  download_timeout_seconds: 90
  session_rotate_interval: 25
  per_page: 40
  use_proxy: true
  proxies: ["http://127.0.0.1:8888"]
output:
  dir: out
  save_json: false
  save_markdown: true
  download_attachments: false
  title_similarity: 0.7
clean:
  metadata_run_threshold: 4
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "自然资源部" {
		t.Fatalf("expected one data source, got %+v", cfg.Sources)
	}
	if cfg.Sources[0].ChannelID != "200072" {
		t.Fatalf("expected channel id 200072, got %q", cfg.Sources[0].ChannelID)
	}
	if len(cfg.Crawl.Keywords) != 2 || cfg.Crawl.MaxPolicyRetries != 2 {
		t.Fatalf("expected crawl overrides to apply: %+v", cfg.Crawl)
	}
	if cfg.HTTP.SessionRotateInterval != 25 || !cfg.HTTP.UseProxy {
		t.Fatalf("expected http overrides to apply: %+v", cfg.HTTP)
	}
	if cfg.Output.SaveJSON || cfg.Output.TitleSimilarity != 0.7 {
		t.Fatalf("expected output overrides to apply: %+v", cfg.Output)
	}
	if cfg.Clean.MetadataRunThreshold != 4 {
		t.Fatalf("expected clean threshold 4, got %d", cfg.Clean.MetadataRunThreshold)
	}
	if got := cfg.RetryDelay(); got != 10*time.Second {
		t.Fatalf("expected retry delay 10s, got %v", got)
	}
	if got := cfg.PolicyRetryDelay(); got != 3*time.Second {
		t.Fatalf("expected policy retry delay 3s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.MaxRetries != 3 || cfg.HTTP.RetryDelaySeconds != 5 {
		t.Fatalf("expected default retry policy, got %+v", cfg.HTTP)
	}
	if cfg.HTTP.SessionRotateInterval != 50 {
		t.Fatalf("expected rotation interval 50, got %d", cfg.HTTP.SessionRotateInterval)
	}
	if cfg.Crawl.MaxPolicyRetries != 0 {
		t.Fatalf("expected no per-policy retries by default, got %d", cfg.Crawl.MaxPolicyRetries)
	}
	if !cfg.Output.SaveMarkdown || cfg.Output.SaveDocx {
		t.Fatalf("expected markdown on and docx off by default: %+v", cfg.Output)
	}
	if cfg.Output.TitleSimilarity != 0.6 {
		t.Fatalf("expected title similarity 0.6, got %v", cfg.Output.TitleSimilarity)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Crawl:  CrawlConfig{Keywords: []string{"矿产"}, MaxPages: 5},
		HTTP:   HTTPConfig{MaxRetries: 3, SearchTimeoutSeconds: 30, SessionRotateInterval: 50},
		Output: OutputConfig{Dir: "out", TitleSimilarity: 0.6},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid max pages",
			cfg: func() Config {
				c := base
				c.Crawl.MaxPages = 0
				return c
			}(),
			want: "crawl.max_pages",
		},
		{
			name: "negative policy retries",
			cfg: func() Config {
				c := base
				c.Crawl.MaxPolicyRetries = -1
				return c
			}(),
			want: "crawl.max_policy_retries",
		},
		{
			name: "invalid rotation interval",
			cfg: func() Config {
				c := base
				c.HTTP.SessionRotateInterval = 0
				return c
			}(),
			want: "http.session_rotate_interval",
		},
		{
			name: "proxy enabled without proxies",
			cfg: func() Config {
				c := base
				c.HTTP.UseProxy = true
				return c
			}(),
			want: "http.proxies",
		},
		{
			name: "similarity out of range",
			cfg: func() Config {
				c := base
				c.Output.TitleSimilarity = 1.5
				return c
			}(),
			want: "output.title_similarity",
		},
		{
			name: "source missing base url",
			cfg: func() Config {
				c := base
				c.Sources = []model.DataSource{{Name: "某站"}}
				return c
			}(),
			want: "sources[0]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigValidateAllowsEmptyKeywords(t *testing.T) {
	t.Parallel()

	// No keywords means an unrestricted crawl, not a misconfiguration.
	cfg := Config{
		Crawl:  CrawlConfig{Keywords: nil, MaxPages: 5},
		HTTP:   HTTPConfig{MaxRetries: 3, SearchTimeoutSeconds: 30, SessionRotateInterval: 50},
		Output: OutputConfig{Dir: "out", TitleSimilarity: 0.6},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}
