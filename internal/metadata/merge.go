package metadata

import (
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/parser"
)

// Merge folds resolved fields into a record. A field already set on the
// record is kept, with one exception: a publication date that parses against
// a known layout replaces one that does not.
func Merge(p *model.Policy, f Fields) {
	if p == nil {
		return
	}
	setIfEmpty(&p.DocNumber, f.DocNumber)
	setIfEmpty(&p.Publisher, f.Publisher)
	setIfEmpty(&p.Level, f.Level)
	setIfEmpty(&p.Category, f.Category)
	setIfEmpty(&p.Validity, f.Validity)
	if f.EffectiveDate != "" {
		setIfEmpty(&p.EffectiveDate, parser.NormalizeDate(f.EffectiveDate))
	}
	mergePubDate(p, f.PubDate)
}

func mergePubDate(p *model.Policy, candidate string) {
	if candidate == "" {
		return
	}
	norm, valid := normalizedDate(candidate)
	if p.PubDate == "" {
		p.PubDate = norm
		return
	}
	if !valid {
		return
	}
	if _, ok := parser.ParseDate(p.PubDate); !ok {
		p.PubDate = norm
	}
}
