// Package crawler implements the sequential crawl pipeline: search each data
// source for policy listings, then fetch, clean, and persist each record.
package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/artifact"
	"github.com/mnr-tools/policy-crawler/internal/counter"
	"github.com/mnr-tools/policy-crawler/internal/httpclient"
	"github.com/mnr-tools/policy-crawler/internal/metrics"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/parser"
	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// AccessClient is the per-source access surface the orchestrator drives.
// httpclient.Client satisfies it; tests substitute fakes.
type AccessClient interface {
	Search(ctx context.Context, req httpclient.SearchRequest) (*httpclient.SearchResult, error)
	FetchDetail(ctx context.Context, pageURL string) (*httpclient.Detail, error)
	DownloadFile(ctx context.Context, fileURL, destPath string) error
	Close()
}

// ClientFactory builds an AccessClient for one data source.
type ClientFactory func(source model.DataSource) (AccessClient, error)

// Options configures one Orchestrator.
type Options struct {
	Sources   []model.DataSource
	Keywords  []string
	StartDate string
	EndDate   string
	MaxPages  int

	OutputDir           string
	SaveJSON            bool
	SaveMarkdown        bool
	SaveDocx            bool
	DownloadAttachments bool
	// TitleSimilarity is the ratio above which an attachment is treated as
	// the policy body document and named after the policy title.
	TitleSimilarity float64

	// MaxPolicyRetries is the number of extra attempts a failing record
	// gets after its first; zero disables record retries.
	MaxPolicyRetries int
	PolicyRetryDelay time.Duration
	// RequestDelay paces the detail crawl between records.
	RequestDelay time.Duration

	// Emitter receives progress events; nil disables emission.
	Emitter progress.Emitter
	// OnSnapshot, when set, receives a structured snapshot after every
	// progress change. It runs on the crawl goroutine and must be fast.
	OnSnapshot func(model.ProgressSnapshot)
	// Docx, when set together with SaveDocx, renders the .docx artifact.
	Docx artifact.DocxGenerator
}

// Orchestrator runs the two-stage crawl over the configured sources. It is
// single-threaded by design; sources and records are visited in order.
type Orchestrator struct {
	opts     Options
	registry *parser.Registry
	factory  ClientFactory
	log      *zap.Logger

	markdown *artifact.MarkdownWriter
	json     *artifact.JSONWriter

	stopped atomic.Bool
}

// New builds an Orchestrator. The markdown numbering counter seeds itself
// from the output directory, so reruns continue the existing sequence.
func New(opts Options, factory ClientFactory, registry *parser.Registry, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if registry == nil {
		registry = parser.NewRegistry(log)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.TitleSimilarity <= 0 {
		opts.TitleSimilarity = 0.6
	}
	mdDir := filepath.Join(opts.OutputDir, "markdown")
	return &Orchestrator{
		opts:     opts,
		registry: registry,
		factory:  factory,
		log:      log,
		markdown: artifact.NewMarkdownWriter(mdDir, counter.NewService(mdDir), log),
		json:     artifact.NewJSONWriter(filepath.Join(opts.OutputDir, "json"), log),
	}
}

// Stop requests cooperative cancellation. The run finishes the record in
// flight and then winds down with a cancelled status.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
}

func (o *Orchestrator) cancelled(ctx context.Context) bool {
	return o.stopped.Load() || ctx.Err() != nil
}

// Run executes the search and detail stages and returns the final progress
// together with the crawled policies. The returned error reflects only fatal
// outer failures; per-source and per-record errors are isolated into the
// progress counters.
func (o *Orchestrator) Run(ctx context.Context) (*model.CrawlProgress, []model.Policy, error) {
	prog := model.NewCrawlProgress()
	started := time.Now()
	o.emit(prog, progress.Event{
		Kind:    progress.KindRunStart,
		Message: o.formatLine(prog, "开始爬取"),
	})

	policies, err := o.searchStage(ctx, prog)
	if err != nil {
		if o.cancelled(ctx) {
			o.finish(prog, model.RunCancelled, started)
			return prog, nil, nil
		}
		prog.Error = err.Error()
		o.finish(prog, model.RunFailed, started)
		return prog, nil, err
	}

	o.detailStage(ctx, prog, policies)

	status := model.RunCompleted
	if o.cancelled(ctx) {
		status = model.RunCancelled
	}
	o.finish(prog, status, started)
	return prog, policies, nil
}

func (o *Orchestrator) finish(prog *model.CrawlProgress, status string, started time.Time) {
	prog.Finish(status)
	metrics.RunsTotal.WithLabelValues(status).Inc()
	o.emit(prog, progress.Event{
		Kind:    progress.KindRunDone,
		Status:  status,
		Dur:     time.Since(started),
		Message: o.formatLine(prog, "状态: "+status),
	})
}

// emit stamps shared event fields from the current progress and delivers it.
func (o *Orchestrator) emit(prog *model.CrawlProgress, evt progress.Event) {
	if o.opts.OnSnapshot != nil {
		o.opts.OnSnapshot(prog.Snapshot())
	}
	if o.opts.Emitter == nil {
		return
	}
	evt.RunID = prog.RunID
	evt.TS = time.Now().UTC()
	evt.Stage = prog.CurrentStage
	evt.Processed = prog.CompletedCount + prog.FailedCount
	evt.Succeeded = prog.CompletedCount
	evt.Failed = prog.FailedCount
	evt.Total = prog.TotalCount
	o.opts.Emitter.Emit(evt)
}

// formatLine renders the " | "-joined progress line handed to callbacks.
func (o *Orchestrator) formatLine(prog *model.CrawlProgress, extra string) string {
	line := fmt.Sprintf("阶段: %s | 进度: %d/%d | 成功: %d | 失败: %d",
		prog.CurrentStage,
		prog.CompletedCount+prog.FailedCount,
		prog.TotalCount,
		prog.CompletedCount,
		prog.FailedCount,
	)
	if prog.CurrentPolicyTitle != "" {
		line += " | 当前: " + prog.CurrentPolicyTitle
	}
	if extra != "" {
		line += " | " + extra
	}
	return line
}
