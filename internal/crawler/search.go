package crawler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/httpclient"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/parser"
	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// searchStage queries every enabled source and returns the deduplicated
// listing. A failing source is logged and skipped; the stage only fails as a
// whole when the run is cancelled before any source finishes.
func (o *Orchestrator) searchStage(ctx context.Context, prog *model.CrawlProgress) ([]model.Policy, error) {
	prog.SetStage(model.StageSearchPolicies, "搜索政策列表", len(o.opts.Sources))
	o.emit(prog, progress.Event{
		Kind:    progress.KindStageChange,
		Message: o.formatLine(prog, "搜索政策列表"),
	})

	var all []model.Policy
	for _, source := range o.opts.Sources {
		if o.cancelled(ctx) {
			return nil, fmt.Errorf("crawl cancelled during search: %w", context.Canceled)
		}
		if !source.Enabled {
			o.log.Debug("source disabled, skipping", zap.String("source", source.Name))
			prog.UpdateStageProgress("", 1, 0, "")
			continue
		}

		found, err := o.searchSource(ctx, source)
		if err != nil {
			o.log.Error("source search failed",
				zap.String("source", source.Name), zap.Error(err))
			prog.UpdateStageProgress("", 0, 1, fmt.Sprintf("%s: %v", source.Name, err))
			continue
		}
		all = append(all, found...)
		prog.UpdateStageProgress("", 1, 0, fmt.Sprintf("%s: %d 条", source.Name, len(found)))
		o.emit(prog, progress.Event{
			Kind:    progress.KindStageChange,
			Source:  source.Name,
			Message: o.formatLine(prog, fmt.Sprintf("%s: %d 条", source.Name, len(found))),
		})
	}

	deduped := dedupe(all)
	if len(deduped) < len(all) {
		o.log.Info("duplicate listings dropped",
			zap.Int("found", len(all)), zap.Int("kept", len(deduped)))
	}
	prog.CompleteStage("", true)
	return deduped, nil
}

// searchSource pages through one source's listing until MaxPages or an empty
// page.
func (o *Orchestrator) searchSource(ctx context.Context, source model.DataSource) ([]model.Policy, error) {
	client, err := o.factory(source)
	if err != nil {
		return nil, fmt.Errorf("build client for %s: %w", source.Name, err)
	}
	defer client.Close()

	category := ""
	if len(o.opts.Keywords) > 0 {
		category = o.opts.Keywords[0]
	}

	var found []model.Policy
	for page := 1; page <= o.opts.MaxPages; page++ {
		if o.cancelled(ctx) {
			break
		}
		res, err := client.Search(ctx, httpclient.SearchRequest{
			Keywords:  o.opts.Keywords,
			Page:      page,
			StartDate: o.opts.StartDate,
			EndDate:   o.opts.EndDate,
		})
		if err != nil {
			// Keep what earlier pages produced.
			if len(found) > 0 {
				o.log.Warn("listing page failed, keeping earlier pages",
					zap.String("source", source.Name), zap.Int("page", page), zap.Error(err))
				break
			}
			return nil, err
		}

		items, err := o.parseListing(res, source, category)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for i := range items {
			items[i].SourceRef = &source
		}
		found = append(found, items...)
	}
	return found, nil
}

func (o *Orchestrator) parseListing(res *httpclient.SearchResult, source model.DataSource, category string) ([]model.Policy, error) {
	switch res.Kind {
	case httpclient.KindJSON:
		items, err := parser.ParseJSONListing(res.Payload, source, category)
		if err != nil {
			return nil, fmt.Errorf("parse json listing: %w", err)
		}
		return items, nil
	default:
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Payload))
		if err != nil {
			return nil, fmt.Errorf("parse html listing: %w", err)
		}
		return o.registry.ForSource(source).Parse(doc, category), nil
	}
}

// dedupe drops records that repeat an earlier (title, link) pair; the first
// occurrence wins.
func dedupe(policies []model.Policy) []model.Policy {
	seen := make(map[string]bool, len(policies))
	out := policies[:0:0]
	for _, p := range policies {
		key := p.Title + "|" + p.SourceURL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
