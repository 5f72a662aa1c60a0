package parser

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// Factory builds a parser scoped to one source.
type Factory func(source model.DataSource, log *zap.Logger) Parser

type registration struct {
	match   string
	factory Factory
}

// Registry maps source base URLs to parser variants. Selection is a
// substring lookup over a finite ordered list; unknown sources get the
// fallback variant.
type Registry struct {
	log      *zap.Logger
	entries  []registration
	fallback Factory
}

// NewRegistry returns a registry pre-wired with the known layout families.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		log: log,
		fallback: func(src model.DataSource, log *zap.Logger) Parser {
			return NewFlatTable(src, log)
		},
	}
	r.Register("gi.mnr.gov.cn", func(src model.DataSource, log *zap.Logger) Parser {
		return NewFlatTable(src, log)
	})
	r.Register("f.mnr.gov.cn", func(src model.DataSource, log *zap.Logger) Parser {
		return NewRecordTable(src, log)
	})
	return r
}

// Register adds a base-URL substring mapping. Earlier registrations win.
func (r *Registry) Register(urlSubstring string, factory Factory) {
	r.entries = append(r.entries, registration{match: urlSubstring, factory: factory})
}

// ForSource selects the parser variant for a source.
func (r *Registry) ForSource(source model.DataSource) Parser {
	for _, e := range r.entries {
		if strings.Contains(source.BaseURL, e.match) {
			return e.factory(source, r.log)
		}
	}
	r.log.Warn("no parser registered for source, using fallback",
		zap.String("source", source.Name),
		zap.String("base_url", source.BaseURL))
	return r.fallback(source, r.log)
}
