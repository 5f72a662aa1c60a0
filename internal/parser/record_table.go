package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// RecordTable parses the f.mnr.gov.cn layout family: every listing record is
// its own small table of label/value rows.
type RecordTable struct {
	source model.DataSource
	log    *zap.Logger
}

// NewRecordTable builds the per-record-table variant for one source.
func NewRecordTable(source model.DataSource, log *zap.Logger) *RecordTable {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordTable{source: source, log: log}
}

// Parse classifies each table on the page and extracts one record per
// recognized policy table.
func (p *RecordTable) Parse(doc *goquery.Document, category string) []model.Policy {
	if doc == nil {
		return nil
	}

	var recordTables []*goquery.Selection
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if isRecordTable(table) {
			recordTables = append(recordTables, table)
		}
	})

	// Label detection found nothing: accept any small table with a
	// detail-looking anchor.
	permissive := false
	if len(recordTables) == 0 {
		permissive = true
		doc.Find("table").Each(func(_ int, table *goquery.Selection) {
			rows := table.Find("tr")
			if rows.Length() < 2 || rows.Length() > 10 {
				return
			}
			if firstDetailAnchor(table) != nil {
				recordTables = append(recordTables, table)
			}
		})
	}

	var policies []model.Policy
	for _, table := range recordTables {
		policy, ok := p.parseTable(table, category)
		if !ok {
			continue
		}
		policies = append(policies, policy)
	}
	p.log.Debug("parsed record tables",
		zap.String("source", p.source.Name),
		zap.Int("tables", len(recordTables)),
		zap.Int("records", len(policies)),
		zap.Bool("permissive", permissive))
	return policies
}

// isRecordTable reports whether a table is a single-policy record: a small
// row count and a first cell naming the title field.
func isRecordTable(table *goquery.Selection) bool {
	rows := table.Find("tr")
	if rows.Length() < 2 || rows.Length() > 10 {
		return false
	}
	firstCell := rows.First().Find("td, th").First()
	if firstCell.Length() == 0 {
		return false
	}
	text := firstCell.Text()
	if matchesAny(text, titleLabels) {
		return true
	}
	// Layouts occasionally pad the label characters apart.
	if strings.Contains(text, "标") && strings.Contains(text, "题") {
		return true
	}
	return strings.Contains(text, "名") && strings.Contains(text, "称")
}

func (p *RecordTable) parseTable(table *goquery.Selection, category string) (model.Policy, bool) {
	var title, link, docNumber, pubDate, validity string

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := labelKey(cells.Eq(0).Text())
		valueCell := cells.Eq(1)
		value := cleanCell(valueCell.Text())

		switch {
		case matchesAny(label, titleLabels) ||
			(strings.Contains(label, "标") && strings.Contains(label, "题")) ||
			(strings.Contains(label, "名") && strings.Contains(label, "称")):
			title = value
			anchor := valueCell.Find("a[href]").First()
			if anchor.Length() > 0 {
				link, _ = anchor.Attr("href")
				if title == "" {
					title = cleanCell(anchor.Text())
				}
			}
		case matchesAny(label, docNumberLabels) ||
			(strings.Contains(label, "发") && strings.Contains(label, "号")):
			docNumber = value
		case matchesAny(label, pubDateLabels) &&
			!strings.Contains(label, "效力") && !strings.Contains(label, "级别"):
			if isDateLike(value) {
				pubDate = value
			}
		case matchesAny(label, effDateLabels):
			if pubDate == "" {
				pubDate = value
			}
		case matchesAny(label, validityLabels):
			validity = value
		}
	})

	// No labeled title: take the first substantial anchor in the table.
	if title == "" {
		table.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if !looksLikeDetailLink(href) {
				return true
			}
			text := cleanCell(a.Text())
			if len([]rune(text)) <= 5 {
				return true
			}
			title = text
			link = href
			return false
		})
	}
	if title == "" {
		return model.Policy{}, false
	}

	return model.Policy{
		Title:     title,
		PubDate:   NormalizeDate(pubDate),
		DocNumber: docNumber,
		SourceURL: resolveLink(p.source.BaseURL, link),
		Category:  category,
		Level:     levelFor(p.source),
		Validity:  validity,
		CrawlTime: model.Now(),
	}, true
}
