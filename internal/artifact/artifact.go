// Package artifact generates per-policy output files (markdown, JSON, docx)
// in the layout downstream ingestion expects.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// DocxGenerator renders a policy into a .docx file. The engine ships no
// docx renderer of its own; hosts that need one inject it.
type DocxGenerator interface {
	Generate(policy *model.Policy, path string) error
}

// SanitizeFileName strips filesystem-hostile characters, keeping letters,
// digits, spaces, hyphens, and underscores.
func SanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// safeTitle renders the policy title as a file name, falling back to a
// hash-derived name for titles with nothing usable.
func safeTitle(p *model.Policy) string {
	title := SanitizeFileName(p.Title)
	if title == "" {
		title = "政策_" + shortHash(p.ID())[:8]
	}
	return title
}

// safeID renders a policy identity as a filesystem-safe token, shortening
// oversized or hostile identities with a digest.
func safeID(id string) string {
	replacer := strings.NewReplacer("|", "_", "/", "_", "\\", "_", ":", "_")
	safe := replacer.Replace(id)

	plain := true
	for _, r := range safe {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			plain = false
			break
		}
	}
	runes := []rune(safe)
	if plain && len(runes) <= 100 {
		return safe
	}

	digest := shortHash(id)
	prefix := safe
	if len(runes) > 20 {
		prefix = string(runes[:20])
	}
	if prefix == "" {
		return digest
	}
	return prefix + "_" + digest
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
