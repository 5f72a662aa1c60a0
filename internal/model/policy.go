// Package model defines the value types shared across the crawl pipeline.
package model

import (
	"time"
)

// DataSource describes one external publication site to crawl. Instances are
// immutable for the duration of a run; they select the parser variant and the
// Referer header used by the access layer.
type DataSource struct {
	Name      string `json:"name" mapstructure:"name"`
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	SearchAPI string `json:"search_api" mapstructure:"search_api"`
	ChannelID string `json:"channel_id" mapstructure:"channel_id"`
	Level     string `json:"level" mapstructure:"level"`
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
}

// Attachment is a file reference discovered on a detail page. It carries no
// local path; downloading is owned by the orchestrator, not the parser.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// SavedAttachment records a successfully downloaded attachment.
type SavedAttachment struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
}

// Policy is the canonical record extracted from a listing and enriched from
// the detail page. Fields use the site's string date forms (YYYY-MM-DD once
// normalized). The orchestrator is the sole writer after creation.
type Policy struct {
	Title         string `json:"title"`
	PubDate       string `json:"pub_date"`
	DocNumber     string `json:"doc_number"`
	SourceURL     string `json:"source_url"`
	Content       string `json:"content"`
	Category      string `json:"category"`
	Level         string `json:"level"`
	Validity      string `json:"validity"`
	EffectiveDate string `json:"effective_date"`
	Publisher     string `json:"publisher"`
	CrawlTime     string `json:"crawl_time"`

	// Optional fields populated by the orchestrator after creation.
	SourceRef       *DataSource       `json:"source_ref,omitempty"`
	MarkdownPath    string            `json:"markdown_path,omitempty"`
	JSONPath        string            `json:"json_path,omitempty"`
	AttachmentPaths []SavedAttachment `json:"attachment_paths,omitempty"`
}

// ID is the identity used for cross-source deduplication.
func (p *Policy) ID() string {
	return p.Title + "|" + p.SourceURL
}

// CrawlTimeFormat is the timestamp layout stamped on records at parse time.
const CrawlTimeFormat = "2006-01-02 15:04:05"

// Now returns the crawl timestamp for newly parsed records.
func Now() string {
	return time.Now().UTC().Format(CrawlTimeFormat)
}
