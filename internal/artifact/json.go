package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// JSONWriter persists one JSON document per policy, keyed by a
// filesystem-safe rendering of the policy identity.
type JSONWriter struct {
	dir string
	log *zap.Logger
}

// NewJSONWriter writes into dir.
func NewJSONWriter(dir string, log *zap.Logger) *JSONWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSONWriter{dir: dir, log: log}
}

// Write generates the JSON file and records its path on the policy.
func (w *JSONWriter) Write(p *model.Policy) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create json dir: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("policy_%s.json", safeID(p.ID())))
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal policy %q: %w", p.Title, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	p.JSONPath = path
	w.log.Debug("json saved", zap.String("path", path))
	return path, nil
}
