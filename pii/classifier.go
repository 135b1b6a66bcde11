package pii

import (
	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// Classification labels. The binary semantics are fixed; deployments may
// localize the strings through config if they ever need to.
const (
	LabelPublic    = "PÚBLICO"
	LabelNotPublic = "NÃO PÚBLICO"
)

// ClassificationResult is the per-record outcome: the label plus the
// resolved literal values per category, in first-occurrence order.
type ClassificationResult struct {
	RecordID string
	Label    string
	Entities map[detectors.Category][]string
}

// Classifier applies the aggregation rule: a record is not public iff any
// strong category resolved at least one value. The strong set is fixed at
// construction.
type Classifier struct {
	strong []detectors.Category
}

func NewClassifier(strong []detectors.Category) *Classifier {
	categories := make([]detectors.Category, len(strong))
	copy(categories, strong)
	return &Classifier{strong: categories}
}

// Classify derives the label from the resolved entity mapping. The single
// source of truth for classification; nothing overrides it.
func (c *Classifier) Classify(recordID string, entities map[detectors.Category][]string) ClassificationResult {
	if entities == nil {
		entities = make(map[detectors.Category][]string)
	}

	label := LabelPublic
	for _, category := range c.strong {
		if len(entities[category]) > 0 {
			label = LabelNotPublic
			break
		}
	}

	return ClassificationResult{
		RecordID: recordID,
		Label:    label,
		Entities: entities,
	}
}
