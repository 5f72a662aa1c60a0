package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/artifact"
	"github.com/mnr-tools/policy-crawler/internal/metadata"
	"github.com/mnr-tools/policy-crawler/internal/metrics"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// detailStage visits every listed policy in order, fetching and persisting
// each one. Record failures are isolated; the stage keeps going.
func (o *Orchestrator) detailStage(ctx context.Context, prog *model.CrawlProgress, policies []model.Policy) {
	prog.SetStage(model.StageCrawlDetails, "爬取政策详情", len(policies))
	o.emit(prog, progress.Event{
		Kind:    progress.KindStageChange,
		Message: o.formatLine(prog, "爬取政策详情"),
	})

	clients := make(map[string]AccessClient)
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	for i := range policies {
		if o.cancelled(ctx) {
			break
		}
		p := &policies[i]
		prog.CurrentPolicyID = p.ID()
		prog.CurrentPolicyTitle = p.Title

		sourceName := ""
		if p.SourceRef != nil {
			sourceName = p.SourceRef.Name
		}

		err := o.crawlWithRetry(ctx, clients, p)
		if err != nil {
			prog.FailedPolicies = append(prog.FailedPolicies, model.FailedPolicy{
				ID:        p.ID(),
				Title:     p.Title,
				Link:      p.SourceURL,
				PubDate:   p.PubDate,
				DocNumber: p.DocNumber,
				Reason:    err.Error(),
			})
			prog.UpdateStageProgress("", 0, 1, p.Title)
			metrics.RecordsTotal.WithLabelValues("failure").Inc()
			o.emit(prog, progress.Event{
				Kind:    progress.KindRecordFailed,
				Source:  sourceName,
				Title:   p.Title,
				Message: o.formatLine(prog, "失败: "+err.Error()),
			})
		} else {
			prog.CompletedPolicies = append(prog.CompletedPolicies, p.ID())
			prog.UpdateStageProgress("", 1, 0, p.Title)
			metrics.RecordsTotal.WithLabelValues("success").Inc()
			o.emit(prog, progress.Event{
				Kind:    progress.KindRecordDone,
				Source:  sourceName,
				Title:   p.Title,
				Message: o.formatLine(prog, ""),
			})
		}

		if i < len(policies)-1 {
			sleepCtx(ctx, o.opts.RequestDelay)
		}
	}

	prog.CurrentPolicyID = ""
	prog.CurrentPolicyTitle = ""
	prog.CompleteStage("", !o.cancelled(ctx))
}

// crawlWithRetry gives a failing record MaxPolicyRetries extra attempts with
// a fixed wait between them.
func (o *Orchestrator) crawlWithRetry(ctx context.Context, clients map[string]AccessClient, p *model.Policy) error {
	attempts := o.opts.MaxPolicyRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if o.cancelled(ctx) {
			if lastErr != nil {
				return lastErr
			}
			return ctx.Err()
		}
		if attempt > 1 {
			o.log.Info("retrying policy",
				zap.String("title", p.Title), zap.Int("attempt", attempt))
			sleepCtx(ctx, o.opts.PolicyRetryDelay)
		}
		lastErr = o.crawlOne(ctx, clients, p)
		if lastErr == nil {
			return nil
		}
		o.log.Warn("policy crawl attempt failed",
			zap.String("title", p.Title), zap.Int("attempt", attempt), zap.Error(lastErr))
	}
	return lastErr
}

func (o *Orchestrator) crawlOne(ctx context.Context, clients map[string]AccessClient, p *model.Policy) error {
	if p.SourceRef == nil {
		return fmt.Errorf("policy %q has no source", p.Title)
	}
	client, err := o.clientFor(clients, *p.SourceRef)
	if err != nil {
		return err
	}

	detail, err := client.FetchDetail(ctx, p.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch detail: %w", err)
	}
	p.Content = detail.Content
	metadata.Merge(p, detail.Metadata)

	if o.opts.SaveMarkdown {
		if _, err := o.markdown.Write(p); err != nil {
			return err
		}
	}
	if o.opts.SaveJSON {
		if _, err := o.json.Write(p); err != nil {
			return err
		}
	}
	if o.opts.SaveDocx && o.opts.Docx != nil {
		dir := filepath.Join(o.opts.OutputDir, "docx")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create docx dir: %w", err)
		}
		path := filepath.Join(dir, artifact.SanitizeFileName(p.Title)+".docx")
		if err := o.opts.Docx.Generate(p, path); err != nil {
			return fmt.Errorf("generate docx: %w", err)
		}
	}
	if o.opts.DownloadAttachments {
		o.downloadAttachments(ctx, client, p, detail.Attachments)
	}
	return nil
}

func (o *Orchestrator) clientFor(clients map[string]AccessClient, source model.DataSource) (AccessClient, error) {
	if c, ok := clients[source.Name]; ok {
		return c, nil
	}
	c, err := o.factory(source)
	if err != nil {
		return nil, fmt.Errorf("build client for %s: %w", source.Name, err)
	}
	clients[source.Name] = c
	return c, nil
}

// downloadAttachments saves each attachment next to the other artifacts. An
// attachment failure never fails the record.
func (o *Orchestrator) downloadAttachments(ctx context.Context, client AccessClient, p *model.Policy, attachments []model.Attachment) {
	if len(attachments) == 0 {
		return
	}
	dir := filepath.Join(o.opts.OutputDir, "attachments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		o.log.Warn("create attachments dir failed", zap.Error(err))
		return
	}
	for i, att := range attachments {
		if o.cancelled(ctx) {
			return
		}
		name := o.attachmentFileName(p.Title, att, i)
		dest := filepath.Join(dir, name)
		if err := client.DownloadFile(ctx, att.URL, dest); err != nil {
			o.log.Warn("attachment download failed",
				zap.String("title", p.Title), zap.String("url", att.URL), zap.Error(err))
			continue
		}
		p.AttachmentPaths = append(p.AttachmentPaths, model.SavedAttachment{
			URL:         att.URL,
			Name:        att.Name,
			StoragePath: dest,
			FileName:    name,
		})
	}
}

// attachmentFileName names a saved attachment. A name close enough to the
// policy title is treated as the policy body document and renamed after the
// title; anything else keeps its own sanitized name.
func (o *Orchestrator) attachmentFileName(title string, att model.Attachment, index int) string {
	ext := filepath.Ext(att.Name)
	if ext == "" {
		ext = filepath.Ext(att.URL)
	}
	base := strings.TrimSuffix(att.Name, ext)
	if similarityRatio(base, title) >= o.opts.TitleSimilarity {
		base = title
	}
	base = artifact.SanitizeFileName(base)
	if base == "" {
		base = fmt.Sprintf("附件_%d", index+1)
	}
	return base + ext
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
