// Package textclean normalizes raw text extracted from government detail
// pages. The pipeline is pure and deterministic: character normalization,
// layout-artifact repair, noise-line removal, and boundary cleanup.
package textclean

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Options tunes the empirically chosen cleaning thresholds. They are
// configuration, not invariants.
type Options struct {
	// MetadataRunThreshold is the minimum number of consecutive
	// label/value-looking lines treated as a duplicated metadata table dump
	// and removed wholesale. Shorter runs are kept as possible body text.
	MetadataRunThreshold int
	// LeadingTrimMax bounds how many metadata-looking lines may be trimmed
	// from the start of the document.
	LeadingTrimMax int
}

// DefaultOptions returns the thresholds used in production.
func DefaultOptions() Options {
	return Options{
		MetadataRunThreshold: 6,
		LeadingTrimMax:       8,
	}
}

// Clean runs the full pipeline with default options.
func Clean(raw string) string {
	return CleanWith(raw, DefaultOptions())
}

// CleanWith runs the full pipeline with explicit options.
func CleanWith(raw string, opts Options) string {
	if raw == "" {
		return ""
	}
	if opts.MetadataRunThreshold <= 0 {
		opts.MetadataRunThreshold = 6
	}
	if opts.LeadingTrimMax <= 0 {
		opts.LeadingTrimMax = 8
	}

	text := NormalizeChars(raw)
	text = repairSplitTokens(text)
	lines := strings.Split(text, "\n")
	lines = removeMetadataBlocks(lines, opts.MetadataRunThreshold)
	lines = removeNoiseLines(lines)
	lines = trimBoundaries(lines, opts.LeadingTrimMax)
	return strings.Join(lines, "\n")
}

var (
	spaceRunRE   = regexp.MustCompile(`[ \t]+`)
	blankRunRE   = regexp.MustCompile(`\n\s*\n\s*\n+`)
	controlRE    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	del8BitCtlRE = regexp.MustCompile("[\u0080-\u009f]")
)

// NormalizeChars decodes HTML entities, maps typographic Unicode variants to
// canonical forms, and strips non-printable control characters except newline
// and tab. It is exported for reuse by the parsers and the metadata resolver.
func NormalizeChars(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := charReplacements[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = spaceRunRE.ReplaceAllString(s, " ")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	s = controlRE.ReplaceAllString(s, "")
	s = del8BitCtlRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Narrow rewrites that rejoin tokens split across lines by table/div layout.
// Each pattern is deliberately bounded so unrelated numerals never merge.
var splitRepairs = []struct {
	re   *regexp.Regexp
	repl string
}{
	// A 4-digit year wrapped onto its own line between non-digit text.
	{regexp.MustCompile(`([^\d])\s*\n+(\d{4})\s*\n+([^\d])`), "${1}${2}${3}"},
	// <number><unit> sequences such as 12号, 3条, 5款, 2项.
	{regexp.MustCompile(`([^0-9\n])\s*\n+(\d+[号条款项])`), "${1}${2}"},
	// Bracket/quote-delimited spans whose content landed on its own line.
	{regexp.MustCompile(`〔\s*\n+([^〕\n]{1,100})\s*\n+〕`), "〔${1}〕"},
	{regexp.MustCompile(`（\s*\n+([^）\n]{1,100})\s*\n+）`), "（${1}）"},
	{regexp.MustCompile(`《\s*\n+([^》\n]{1,100})\s*\n+》`), "《${1}》"},
	{regexp.MustCompile(`"\s*\n+([^"\n]{1,100})\s*\n+"`), `"${1}"`},
	// Article references: 第/1/条 on three lines.
	{regexp.MustCompile(`第\s*\n+(\d+)\s*\n+条`), "第${1}条"},
	// Parenthesized ordinals: (/1/).
	{regexp.MustCompile(`\(\s*\n+(\d+)\s*\n+\)`), "(${1})"},
}

// Common two-character words the upstream layout frequently splits one
// character per line.
var splitWords = []string{"公司", "部门", "规定", "决定", "申请", "资质", "证书", "来源"}

var splitWordRepairs = buildSplitWordRepairs()

func buildSplitWordRepairs() []struct {
	re   *regexp.Regexp
	repl string
} {
	out := make([]struct {
		re   *regexp.Regexp
		repl string
	}, 0, len(splitWords))
	for _, w := range splitWords {
		runes := []rune(w)
		if len(runes) != 2 {
			continue
		}
		pattern := `([^\n\d])\n+` + regexp.QuoteMeta(string(runes[0])) +
			`\n+` + regexp.QuoteMeta(string(runes[1])) + `([^\n\d]|$)`
		out = append(out, struct {
			re   *regexp.Regexp
			repl string
		}{regexp.MustCompile(pattern), "${1}" + w + "${2}"})
	}
	return out
}

func repairSplitTokens(s string) string {
	for _, r := range splitRepairs {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	for _, r := range splitWordRepairs {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

func isMetadataLabelLine(line string) bool {
	for _, label := range metadataLabels {
		if line == label {
			return true
		}
	}
	return false
}

func looksLikeMetadataLine(line string) bool {
	if line == "" {
		return false
	}
	if isMetadataLabelLine(line) {
		return true
	}
	// Short lines carrying date/institution markers are value rows of a
	// label/value dump; long lines are body text.
	if utf8.RuneCountInString(line) >= 20 {
		return false
	}
	for _, marker := range metadataValueMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// removeMetadataBlocks drops runs of >= threshold consecutive
// label/value-looking lines. Shorter runs are kept wholesale.
func removeMetadataBlocks(lines []string, threshold int) []string {
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !looksLikeMetadataLine(line) {
			out = append(out, lines[i])
			i++
			continue
		}
		runStart := i
		for i < len(lines) && looksLikeMetadataLine(strings.TrimSpace(lines[i])) {
			i++
		}
		if i-runStart < threshold {
			out = append(out, lines[runStart:i]...)
		}
	}
	return out
}

func isNoiseLine(line string) bool {
	if line == "" {
		return false
	}
	runeLen := utf8.RuneCountInString(line)
	if runeLen < 10 {
		for _, kw := range noiseLineVocabulary {
			if line == kw {
				return true
			}
		}
		// Empty or near-empty 【】 shells.
		if line == "【" || line == "】" {
			return true
		}
		if strings.HasPrefix(line, "【") && strings.HasSuffix(line, "】") && runeLen <= 5 {
			return true
		}
	}
	if runeLen <= 50 {
		for _, phrase := range noisePhrases {
			if strings.Contains(line, phrase) {
				return true
			}
		}
	}
	return false
}

func removeNoiseLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			out = append(out, "")
			continue
		}
		if isNoiseLine(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

var trailingFurnitureMarkers = []string{"【", "】", "字号", "打印", "关闭", "下载"}

// trimBoundaries collapses blank-line runs, trims a bounded number of
// leading metadata-looking lines, and strips trailing page furniture.
func trimBoundaries(lines []string, leadingTrimMax int) []string {
	// Collapse runs of blank lines to at most one.
	collapsed := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		collapsed = append(collapsed, line)
		prevBlank = blank
	}
	lines = collapsed

	// Leading blank lines.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	// Bounded trim of leading metadata-looking lines, stopping at the first
	// line that reads like body text.
	trimmed := 0
	for len(lines) > 0 && trimmed < leadingTrimMax {
		line := strings.TrimSpace(lines[0])
		if line == "" {
			lines = lines[1:]
			continue
		}
		if utf8.RuneCountInString(line) > 20 || !looksLikeMetadataLine(line) {
			break
		}
		lines = lines[1:]
		trimmed++
	}

	// Trailing blanks and page-furniture fragments.
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		furniture := false
		for _, marker := range trailingFurnitureMarkers {
			if strings.Contains(last, marker) {
				furniture = true
				break
			}
		}
		if !furniture {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return lines
}
