// Package metadata reconciles the labeled field blocks on detail pages into
// canonical policy fields.
package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/parser"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// Fields are the canonical values extracted from one detail page. Empty
// string means the page did not carry the field.
type Fields struct {
	DocNumber     string
	Publisher     string
	Level         string
	Category      string
	PubDate       string
	Validity      string
	EffectiveDate string
}

// Empty reports whether no field was extracted.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Resolver extracts metadata from detail-page DOMs. The primary source is
// the two-column label block the ministry sites render; any label/value
// table is the fallback.
type Resolver struct {
	log *zap.Logger
}

// NewResolver builds a resolver.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// Resolve extracts canonical fields from a detail page. Once a field is set
// by one labeled group it is never overwritten by a later group; the same
// layout often repeats a field under a near-synonymous label.
func (r *Resolver) Resolve(doc *goquery.Document) Fields {
	var f Fields
	if doc == nil {
		return f
	}

	r.resolveLabelBlock(doc, &f)
	if f.Empty() {
		r.resolveTables(doc, &f)
	}

	// Publisher inference from the document-number prefix.
	if f.DocNumber != "" && f.Publisher == "" {
		if publisher, ok := InferPublisher(f.DocNumber); ok {
			f.Publisher = publisher
			f.Level = publisher
			r.log.Debug("inferred publisher from document number",
				zap.String("doc_number", f.DocNumber),
				zap.String("publisher", publisher))
		}
	}
	return f
}

// resolveLabelBlock reads the div.dtl-middle layout: mid-1/mid-3 hold label
// spans, mid-2/mid-4 the parallel value spans.
func (r *Resolver) resolveLabelBlock(doc *goquery.Document, f *Fields) {
	block := doc.Find("div.dtl-middle").First()
	if block.Length() == 0 {
		return
	}

	labels1 := spanTexts(block.Find("div.mid-1").First())
	values1 := spanTexts(block.Find("div.mid-2").First())
	for i, label := range labels1 {
		if i >= len(values1) {
			break
		}
		assignGroupOne(f, labelKey(label), values1[i])
	}

	labels2 := spanTexts(block.Find("div.mid-3").First())
	values2 := spanTexts(block.Find("div.mid-4").First())
	for i, label := range labels2 {
		if i >= len(values2) {
			break
		}
		assignGroupTwo(f, labelKey(label), values2[i])
	}
}

// resolveTables is the fallback for layouts without the label block: any
// table row with a label cell followed by a value cell.
func (r *Resolver) resolveTables(doc *goquery.Document, f *Fields) {
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := labelKey(cells.Eq(0).Text())
		value := cleanValue(cells.Eq(1).Text())
		if value == "" {
			return
		}
		assignGroupOne(f, label, value)
		assignGroupTwo(f, label, value)
	})
}

func assignGroupOne(f *Fields, label, value string) {
	switch {
	case strings.Contains(label, "发文字号") || strings.Contains(label, "文号"):
		setIfEmpty(&f.DocNumber, value)
	case strings.Contains(label, "发布机构") ||
		(strings.Contains(label, "机构") && strings.Contains(label, "发布")):
		setIfEmpty(&f.Publisher, value)
		setIfEmpty(&f.Level, value)
	case strings.Contains(label, "业务类型") || strings.Contains(label, "分类"):
		setIfEmpty(&f.Category, value)
	}
}

func assignGroupTwo(f *Fields, label, value string) {
	switch {
	case (strings.Contains(label, "成文时间") ||
		strings.Contains(label, "生成日期") ||
		strings.Contains(label, "发布日期")) &&
		!strings.Contains(label, "效力") && !strings.Contains(label, "级别"):
		if dateLike(value) {
			setIfEmpty(&f.PubDate, value)
		}
	case strings.Contains(label, "效力级别") ||
		(strings.Contains(label, "级别") && strings.Contains(label, "效力")):
		setIfEmpty(&f.Validity, value)
	case strings.Contains(label, "生效日期") || strings.Contains(label, "实施日期"):
		setIfEmpty(&f.EffectiveDate, value)
	case strings.Contains(label, "时效状态") ||
		(strings.Contains(label, "状态") && strings.Contains(label, "时效")):
		setIfEmpty(&f.Validity, value)
	}
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// dateLike gates date candidates: at least one of 年/月/日, or length >= 8.
// Tier values such as 甲级 fail both, even under a date-shaped label.
func dateLike(value string) bool {
	if value == "" {
		return false
	}
	for _, marker := range []string{"年", "月", "日"} {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return len([]rune(value)) >= 8
}

func spanTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Find("span").Each(func(_ int, span *goquery.Selection) {
		text := cleanValue(span.Text())
		if text == "" {
			return
		}
		out = append(out, text)
	})
	return out
}

func cleanValue(s string) string {
	s = strings.ReplaceAll(s, "<!--", "")
	s = strings.ReplaceAll(s, "-->", "")
	return textclean.NormalizeChars(s)
}

func labelKey(s string) string {
	return strings.ReplaceAll(cleanValue(s), " ", "")
}

// publisherPrefixes maps document-number prefixes to the issuing ministry.
// Longer prefixes are listed first so they win over shared stems.
var publisherPrefixes = []struct {
	prefix    string
	publisher string
}{
	{"国土调查办发", "国土资源部"},
	{"国土资源部", "国土资源部"},
	{"自然资发", "自然资源部"},
	{"国土资发", "国土资源部"},
}

// InferPublisher maps a document-number prefix to the issuing institution.
// The mapping is a finite lookup, not free-text guessing.
func InferPublisher(docNumber string) (string, bool) {
	for _, p := range publisherPrefixes {
		if strings.HasPrefix(docNumber, p.prefix) {
			return p.publisher, true
		}
	}
	return "", false
}

// normalizedDate reports whether the value parses against a known layout.
func normalizedDate(value string) (string, bool) {
	if _, ok := parser.ParseDate(value); ok {
		return parser.NormalizeDate(value), true
	}
	return value, false
}
