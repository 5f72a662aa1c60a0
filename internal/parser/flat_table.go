package parser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// FlatTable parses the gi.mnr.gov.cn layout family: one listing table where
// each row is a record and label/value pairs sit in adjacent cells at no
// fixed column position.
type FlatTable struct {
	source model.DataSource
	log    *zap.Logger
}

// NewFlatTable builds the flat-table variant for one source.
func NewFlatTable(source model.DataSource, log *zap.Logger) *FlatTable {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlatTable{source: source, log: log}
}

// Parse scans the listing table and emits one candidate record per row.
func (p *FlatTable) Parse(doc *goquery.Document, category string) []model.Policy {
	if doc == nil {
		return nil
	}
	table := doc.Find("table.table").First()
	if table.Length() == 0 {
		p.log.Debug("listing table not found, trying permissive fallback",
			zap.String("source", p.source.Name))
		return p.parsePermissive(doc, category)
	}

	var policies []model.Policy
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		policy, ok := p.parseRow(row, category)
		if !ok {
			return
		}
		policies = append(policies, policy)
	})
	p.log.Debug("parsed listing rows",
		zap.String("source", p.source.Name),
		zap.Int("records", len(policies)))
	return policies
}

func (p *FlatTable) parseRow(row *goquery.Selection, category string) (model.Policy, bool) {
	cells := row.Find("td")
	if cells.Length() < 4 {
		return model.Policy{}, false
	}

	firstCell := cleanCell(cells.Eq(0).Text())
	if firstCell == "" || isHeaderCell(firstCell) {
		return model.Policy{}, false
	}
	// Record rows start with an index number.
	runes := []rune(firstCell)
	if len(runes) < 4 || !unicode.IsDigit(runes[0]) {
		return model.Policy{}, false
	}

	var title, link, docNumber, pubDate string
	cells.Each(func(i int, cell *goquery.Selection) {
		if i+1 >= cells.Length() {
			return
		}
		label := labelKey(cell.Text())
		next := cells.Eq(i + 1)
		value := cleanCell(next.Text())

		switch {
		case matchesAny(label, titleLabels):
			anchor := next.Find("a[href]").First()
			if anchor.Length() == 0 {
				anchor = cell.Find("a[href]").First()
			}
			if anchor.Length() > 0 {
				title = cleanCell(anchor.Text())
				link, _ = anchor.Attr("href")
				if title == "" {
					title = value
				}
			} else if value != "" {
				title = value
			}
		case strings.Contains(label, "发文字号") ||
			(strings.Contains(label, "文号") && strings.Contains(label, "发")):
			if value != "" {
				docNumber = value
			}
		case strings.Contains(label, "生成日期"):
			if isDateLike(value) {
				pubDate = value
			}
		case strings.Contains(label, "发布日期"):
			if pubDate == "" && isDateLike(value) {
				pubDate = value
			}
		}
	})

	// No labeled title: take the first real anchor in the row.
	if title == "" {
		cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			anchor := cell.Find("a[href]").First()
			if anchor.Length() == 0 {
				return true
			}
			href, _ := anchor.Attr("href")
			if !looksLikeDetailLink(href) {
				return true
			}
			title = cleanCell(anchor.Text())
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
		CrawlTime: model.Now(),
	}, true
}

// parsePermissive accepts any small table carrying a detail-looking anchor.
// It keeps a page with an unrecognized shell from producing zero records.
func (p *FlatTable) parsePermissive(doc *goquery.Document, category string) []model.Policy {
	var policies []model.Policy
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 1 || rows.Length() > 10 {
			return
		}
		anchor := firstDetailAnchor(table)
		if anchor == nil {
			return
		}
		title := cleanCell(anchor.Text())
		if len([]rune(title)) <= 5 {
			return
		}
		href, _ := anchor.Attr("href")
		policies = append(policies, model.Policy{
			Title:     title,
			SourceURL: resolveLink(p.source.BaseURL, href),
			Category:  category,
			Level:     levelFor(p.source),
			CrawlTime: model.Now(),
		})
	})
	return policies
}

func isHeaderCell(text string) bool {
	for _, v := range headerCellValues {
		if text == v {
			return true
		}
	}
	return false
}

func firstDetailAnchor(sel *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !looksLikeDetailLink(href) {
			return true
		}
		found = a
		return false
	})
	return found
}
