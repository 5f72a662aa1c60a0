// Package parser turns listing pages into candidate policy records. Each
// known site layout family gets its own variant; selection is an explicit
// registry lookup on the source base URL.
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// Parser extracts candidate records from one listing page. Implementations
// swallow per-record extraction failures; a malformed row never fails the
// page.
type Parser interface {
	Parse(doc *goquery.Document, category string) []model.Policy
}

// DefaultLevel is the issuing-authority tier assumed when a source does not
// configure one.
const DefaultLevel = "自然资源部"

// Label synonyms shared by the table variants. Listings repeat the same
// field under near-synonymous labels; matching is by substring on the
// space-stripped label cell.
var (
	titleLabels     = []string{"标题", "名称"}
	docNumberLabels = []string{"发文字号", "文号"}
	pubDateLabels   = []string{"成文时间", "生成日期", "发布日期", "公布日期"}
	effDateLabels   = []string{"实施日期", "生效日期"}
	validityLabels  = []string{"效力级别", "级别"}

	// Header cells that mark a table's label row rather than a record.
	headerCellValues = []string{"标题", "索引", "发文字号", "生成日期", "实施日期"}
)

func cleanCell(s string) string {
	return textclean.NormalizeChars(s)
}

func labelKey(s string) string {
	return strings.ReplaceAll(cleanCell(s), " ", "")
}

func matchesAny(label string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(label, c) {
			return true
		}
	}
	return false
}

// isDateLike gates date candidates: at least one of 年/月/日, or length >= 8.
// Tier values such as 甲级 fail both conditions.
func isDateLike(value string) bool {
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

// looksLikeDetailLink filters anchors when falling back to permissive record
// detection.
func looksLikeDetailLink(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript") {
		return false
	}
	return true
}

// resolveLink makes relative hrefs absolute against the source base URL.
// Unparsable inputs come back unchanged.
func resolveLink(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func levelFor(src model.DataSource) string {
	if src.Level != "" {
		return src.Level
	}
	return DefaultLevel
}
