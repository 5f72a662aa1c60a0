package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/markdown"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/counter"
	"github.com/mnr-tools/policy-crawler/internal/model"
)

// MarkdownWriter renders policies as numbered markdown documents with YAML
// front matter, shaped for RAG ingestion.
type MarkdownWriter struct {
	dir     string
	counter *counter.Service
	log     *zap.Logger
}

// NewMarkdownWriter writes into dir, numbering files via the shared counter.
func NewMarkdownWriter(dir string, c *counter.Service, log *zap.Logger) *MarkdownWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &MarkdownWriter{dir: dir, counter: c, log: log}
}

// Write generates the markdown file and records its path on the policy.
func (w *MarkdownWriter) Write(p *model.Policy) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create markdown dir: %w", err)
	}

	number := w.counter.Next()
	name := fmt.Sprintf("%04d_%s.md", number, safeTitle(p))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	writeFrontMatter(md, p)

	md.H1(p.Title)
	md.PlainText("")
	md.H2("基本信息")
	md.PlainText("")
	md.BulletList(infoItems(p)...)
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.H2("正文内容")
	md.PlainText("")
	if p.Content != "" {
		md.PlainText(p.Content)
	} else {
		md.PlainText("> **注意**: 该政策的正文内容无法自动获取。")
		md.PlainText("> 请访问来源链接查看完整文档内容。")
	}

	if err := md.Build(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	p.MarkdownPath = path
	w.log.Debug("markdown saved", zap.String("path", path))
	return path, nil
}

func writeFrontMatter(md *markdown.Markdown, p *model.Policy) {
	md.PlainText("---")
	md.PlainText(fmt.Sprintf("title: %q", p.Title))
	md.PlainText(fmt.Sprintf("level: %q", p.Level))
	md.PlainText(fmt.Sprintf("category: %q", p.Category))
	md.PlainText(fmt.Sprintf("pub_date: %q", p.PubDate))
	md.PlainText(fmt.Sprintf("doc_number: %q", p.DocNumber))
	if p.EffectiveDate != "" {
		md.PlainText(fmt.Sprintf("effective_date: %q", p.EffectiveDate))
	}
	if p.Validity != "" {
		md.PlainText(fmt.Sprintf("validity: %q", p.Validity))
	}
	md.PlainText(fmt.Sprintf("source_url: %q", p.SourceURL))
	md.PlainText(fmt.Sprintf("crawl_time: %q", p.CrawlTime))
	md.PlainText("---")
	md.PlainText("")
}

func infoItems(p *model.Policy) []string {
	items := []string{
		fmt.Sprintf("**发布机构**: %s", p.Level),
		fmt.Sprintf("**发布日期**: %s", p.PubDate),
	}
	if p.DocNumber != "" {
		items = append(items, fmt.Sprintf("**发文字号**: %s", p.DocNumber))
	}
	if p.EffectiveDate != "" {
		items = append(items, fmt.Sprintf("**生效日期**: %s", p.EffectiveDate))
	}
	if p.Validity != "" {
		items = append(items, fmt.Sprintf("**有效性**: %s", p.Validity))
	}
	if p.Category != "" {
		items = append(items, fmt.Sprintf("**分类**: %s", p.Category))
	}
	items = append(items, fmt.Sprintf("**来源链接**: [查看原文](%s)", p.SourceURL))
	return items
}
