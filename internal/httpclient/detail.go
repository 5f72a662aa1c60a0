package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mnr-tools/policy-crawler/internal/metadata"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// Detail is the extracted payload of one detail page.
type Detail struct {
	Content     string
	Attachments []model.Attachment
	Metadata    metadata.Fields
}

// Containers the sites put body text in, in preference order.
var contentSelectors = []string{
	"div#content",
	"div.TRS_Editor",
	"div.Custom_UnionStyle",
	"div.content",
	"div.article-content",
	"div.main-content",
	"div.article",
}

// FetchDetail loads a detail page and extracts cleaned body text,
// attachment references, and the labeled metadata block.
func (c *Client) FetchDetail(ctx context.Context, pageURL string) (*Detail, error) {
	c.checkAndRotate()

	body, err := c.getWithRetry(ctx, pageURL, c.cfg.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail %s: %w", pageURL, err)
	}

	resolver := metadata.NewResolver(c.log)
	fields := resolver.Resolve(doc)
	attachments := ExtractAttachments(doc, pageURL)
	content := extractContent(doc, c.cfg.Clean)

	return &Detail{
		Content:     content,
		Attachments: attachments,
		Metadata:    fields,
	}, nil
}

// extractContent locates the body container and renders its cleaned text.
// Pages without a recognized container fall back to full-page text.
func extractContent(doc *goquery.Document, opts textclean.Options) string {
	container := findContentContainer(doc)
	if container == nil {
		return textclean.CleanWith(blockText(doc.Selection), opts)
	}

	// The outer .content shell wraps navigation and the metadata block;
	// strip those and prefer the inner body container.
	if container.HasClass("content") {
		container.Find("div.search-box, div.dtl-top, div.dtl-middle").Remove()
		if inner := container.Find("div#content").First(); inner.Length() > 0 {
			container = inner
		}
	}
	container.Find("script, style, nav, header, footer").Remove()

	// TRS exports nest the real body in Custom_UnionStyle.
	if custom := container.Find("div.Custom_UnionStyle").First(); custom.Length() > 0 {
		container = custom
	}
	return textclean.CleanWith(blockText(container), opts)
}

func findContentContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "ul": true, "ol": true,
}

// blockText renders a selection as text with newlines at block boundaries,
// preserving the line structure the cleaner's line-oriented stages need.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeNodeText(n, &b)
	}
	return b.String()
}

func writeNodeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeNodeText(child, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}
