package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

// jsonItem is the superset of fields the search APIs put on one listing
// entry. Field names are the sites' own.
type jsonItem struct {
	Title         string `json:"title"`
	PubDate       string `json:"pubdate"`
	PublishDate   string `json:"publishdate"`
	FileNum       string `json:"filenum"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	Summary       string `json:"summary"`
	Abstract      string `json:"abstract"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	EffectiveDate string `json:"effectivedate"`
}

// ParseJSONListing decodes a JSON search response into candidate records.
// The payload is either {"results": [...]}, {"data": [...]}, or a bare
// array.
func ParseJSONListing(payload []byte, source model.DataSource, category string) ([]model.Policy, error) {
	items, err := decodeItems(payload)
	if err != nil {
		return nil, err
	}

	policies := make([]model.Policy, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		content := strings.TrimSpace(item.Content)
		if content == "" {
			content = strings.TrimSpace(item.Summary)
		}
		if content == "" {
			content = strings.TrimSpace(item.Abstract)
		}
		rawDate := item.PubDate
		if rawDate == "" {
			rawDate = item.PublishDate
		}
		cat := item.Category
		if cat == "" {
			cat = category
		}
		policies = append(policies, model.Policy{
			Title:         title,
			PubDate:       NormalizeDate(rawDate),
			DocNumber:     item.FileNum,
			SourceURL:     resolveLink(source.BaseURL, item.URL),
			Content:       content,
			Category:      cat,
			Level:         levelFor(source),
			Validity:      item.Status,
			EffectiveDate: item.EffectiveDate,
			CrawlTime:     model.Now(),
		})
	}
	return policies, nil
}

func decodeItems(payload []byte) ([]jsonItem, error) {
	var envelope struct {
		Results []jsonItem `json:"results"`
		Data    []jsonItem `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Results != nil {
			return envelope.Results, nil
		}
		if envelope.Data != nil {
			return envelope.Data, nil
		}
		return nil, nil
	}

	var bare []jsonItem
	if err := json.Unmarshal(payload, &bare); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return bare, nil
}
