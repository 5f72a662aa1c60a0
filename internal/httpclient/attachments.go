package httpclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// Longest extensions first so .tar.gz wins over .gz.
var attachmentExtensions = []string{
	".tar.gz", ".tar.bz2", ".tar.xz",
	".zip", ".tar", ".rar", ".7z", ".gz", ".bz2",
	".doc", ".docx", ".pdf", ".xls", ".xlsx", ".ppt", ".pptx",
	".txt", ".csv", ".xml", ".json",
}

var attachmentKeywords = []string{"下载", "附件", "download", "attachment"}

var attachmentPathMarkers = []string{"/attach/", "/attachment/", "/file/", "/download/"}

// ExtractAttachments collects file references from a detail page: anchors
// with a known file extension, download-keyword text, or an attachment-style
// path. Duplicates by URL are dropped.
func ExtractAttachments(doc *goquery.Document, pageURL string) []model.Attachment {
	var attachments []model.Attachment
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href := strings.TrimSpace(anchor.AttrOr("href", ""))
		if !usableHref(href) {
			return
		}

		text := textclean.NormalizeChars(anchor.Text())
		if !isAttachmentHref(href, text) {
			return
		}

		fullURL := absoluteURL(pageURL, href)
		if fullURL == "" || !strings.HasPrefix(fullURL, "http") || seen[fullURL] {
			return
		}

		name := text
		if len([]rune(name)) < 2 {
			name = fileNameFromHref(href)
		}
		if len([]rune(name)) < 2 {
			name = fmt.Sprintf("附件_%d", len(attachments)+1)
		}

		seen[fullURL] = true
		attachments = append(attachments, model.Attachment{URL: fullURL, Name: name})
	})
	return attachments
}

func usableHref(href string) bool {
	if href == "" || href == "#" {
		return false
	}
	lower := strings.ToLower(href)
	return !strings.HasPrefix(lower, "javascript:") &&
		!strings.HasPrefix(lower, "mailto:") &&
		!strings.HasPrefix(lower, "#")
}

func isAttachmentHref(href, text string) bool {
	lower := strings.ToLower(href)
	for _, ext := range attachmentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	lowerText := strings.ToLower(text)
	for _, kw := range attachmentKeywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	for _, marker := range attachmentPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func absoluteURL(pageURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func fileNameFromHref(href string) string {
	name := href
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	return name
}
