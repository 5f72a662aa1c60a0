package parser

import (
	"strings"
	"time"
)

// dateLayouts are the publication-date forms the crawled sites emit.
// Non-padded verbs accept both 2023年5月1日 and 2023年05月01日.
var dateLayouts = []string{
	"2006年1月2日",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

// ParseDate parses a site date string against the known layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders a parsable date as YYYY-MM-DD. Unparsable but
// plausible values pass through verbatim rather than being discarded.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
