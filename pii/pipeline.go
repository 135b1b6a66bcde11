package pii

import (
	"context"
	"fmt"
	"log"

	"github.com/getsentry/sentry-go"

	"github.com/hannes/esic-screener/config"
	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// Pipeline runs one record through the fixed sequence: regex detection and
// name extraction, resolution, classification. It keeps no state across
// records; re-running the same text yields an identical result.
type Pipeline struct {
	regex      detectors.Detector
	names      *NameExtractor
	classifier *Classifier
	logging    config.LoggingConfig
}

// NewPipeline wires the standard detector set against the given tagger
// provider. The strong set decides which categories make a record not
// public.
func NewPipeline(provider TaggerProvider, strong []detectors.Category, logging config.LoggingConfig) *Pipeline {
	return &Pipeline{
		regex:      detectors.NewRegexDetector(detectors.PIIPatterns),
		names:      NewNameExtractor(provider),
		classifier: NewClassifier(strong),
		logging:    logging,
	}
}

// Process classifies a single record. It never returns an error: a failing
// stage contributes zero detections for this record only, is logged and
// reported, and every other stage still runs. Empty text is a normal PÚBLICO
// outcome, not an error.
func (p *Pipeline) Process(ctx context.Context, recordID, text string) ClassificationResult {
	text = NormalizeText(text)

	var detections []detectors.Detection
	if text != "" {
		output, err := p.regex.Detect(ctx, detectors.DetectorInput{Text: text})
		if err != nil {
			p.reportStageError(recordID, "regex detection", err)
		} else {
			detections = append(detections, output.Detections...)
		}

		names, err := p.names.Extract(ctx, text)
		if err != nil {
			p.reportStageError(recordID, "name extraction", err)
		} else {
			detections = append(detections, names...)
		}
	}

	if p.logging.LogVerbose {
		log.Printf("[Pipeline] record %s: %d raw detections", recordID, len(detections))
	}

	entities := ResolveDetections(text, detections)
	result := p.classifier.Classify(recordID, entities)

	if p.logging.LogDetections {
		for _, category := range categoryPrecedence {
			if values := entities[category]; len(values) > 0 {
				log.Printf("[Pipeline] record %s: %s x%d", recordID, category, len(values))
			}
		}
	}
	if p.logging.LogRecords {
		log.Printf("[Pipeline] record %s: %s", recordID, result.Label)
	}

	return result
}

// reportStageError implements the silent-continue policy: log, hand the
// error to Sentry when it is configured, move on.
func (p *Pipeline) reportStageError(recordID, stage string, err error) {
	log.Printf("[Pipeline] record %s: %s failed: %v", recordID, stage, err)
	sentry.CaptureException(fmt.Errorf("record %s: %s: %w", recordID, stage, err))
}
