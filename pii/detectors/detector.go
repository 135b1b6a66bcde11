package pii

import (
	"context"
)

// Detector names
const (
	DetectorNameRegex = "regex_detector"
	DetectorNameONNX  = "onnx_entity_tagger"
)

type Detector interface {
	GetName() string
	Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error)
	Close() error
}

// EntityTagger is the narrow capability the name extractor consumes: given
// text, return tagged spans carrying at least the PER label. Implementations
// must be safe for concurrent use once constructed.
type EntityTagger interface {
	Tag(ctx context.Context, text string) ([]TaggedSpan, error)
	Close() error
}
