package pii

import (
	"context"
	"errors"
	"strings"
	"testing"

	detectors "github.com/hannes/esic-screener/pii/detectors"
)

var errUnhealthy = errors.New("model is unhealthy")

// fakeTagger implements detectors.EntityTagger for tests. spanFor maps text
// to the spans the "model" returns.
type fakeTagger struct {
	spanFor func(text string) []detectors.TaggedSpan
	err     error
}

func (f *fakeTagger) Tag(ctx context.Context, text string) ([]detectors.TaggedSpan, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.spanFor == nil {
		return nil, nil
	}
	return f.spanFor(text), nil
}

func (f *fakeTagger) Close() error { return nil }

type fakeProvider struct {
	tagger detectors.EntityTagger
	err    error
}

func (f *fakeProvider) GetTagger() (detectors.EntityTagger, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tagger, nil
}

// personSpans builds a tagger that marks every given substring as PER.
func personSpans(names ...string) func(text string) []detectors.TaggedSpan {
	return func(text string) []detectors.TaggedSpan {
		var spans []detectors.TaggedSpan
		for _, name := range names {
			idx := strings.Index(text, name)
			if idx < 0 {
				continue
			}
			spans = append(spans, detectors.TaggedSpan{
				Text:       name,
				Label:      detectors.LabelPerson,
				StartPos:   idx,
				EndPos:     idx + len(name),
				Confidence: 0.9,
			})
		}
		return spans
	}
}

func extractNames(t *testing.T, text string, spans ...string) []detectors.Detection {
	t.Helper()
	extractor := NewNameExtractor(&fakeProvider{tagger: &fakeTagger{spanFor: personSpans(spans...)}})
	names, err := extractor.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return names
}

func TestNameExtractor_TitleStripped(t *testing.T) {
	names := extractNames(t, "Atendido por Dr. João da Silva Pereira ontem.", "Dr. João da Silva Pereira")

	if len(names) != 1 {
		t.Fatalf("Expected 1 name, got %d", len(names))
	}
	if names[0].Text != "João da Silva Pereira" {
		t.Errorf("Expected 'João da Silva Pereira', got '%s'", names[0].Text)
	}
	if names[0].Category != detectors.CategoryName {
		t.Errorf("Expected category nome, got %s", names[0].Category)
	}
}

func TestNameExtractor_GarbageSuffixStripped(t *testing.T) {
	names := extractNames(t, "Maria Souza CPF 210.201.140-24", "Maria Souza CPF")

	if len(names) != 1 {
		t.Fatalf("Expected 1 name, got %d", len(names))
	}
	if names[0].Text != "Maria Souza" {
		t.Errorf("Expected 'Maria Souza', got '%s'", names[0].Text)
	}
}

func TestNameExtractor_FormalTreatmentRejected(t *testing.T) {
	names := extractNames(t, "Vossa Excelência sabe do caso.", "Vossa Excelência")

	if len(names) != 0 {
		t.Errorf("Expected formal treatment to be rejected, got %v", names)
	}
}

func TestNameExtractor_IgnoresOtherLabels(t *testing.T) {
	tagger := &fakeTagger{spanFor: func(text string) []detectors.TaggedSpan {
		return []detectors.TaggedSpan{
			{Text: "Brasília", Label: "LOC", StartPos: 0, EndPos: 9},
		}
	}}
	extractor := NewNameExtractor(&fakeProvider{tagger: tagger})

	names, err := extractor.Extract(context.Background(), "Brasília é a capital.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected 0 names from LOC span, got %d", len(names))
	}
}

func TestNameExtractor_ProviderError(t *testing.T) {
	extractor := NewNameExtractor(&fakeProvider{err: errUnhealthy})

	if _, err := extractor.Extract(context.Background(), "qualquer texto"); err == nil {
		t.Error("Expected provider error to propagate")
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"João da Silva Pereira", true},
		{"Maria Martins Mota Silva", true},
		{"Maria", false},                      // single token
		{"Maria Souza Maria", false},          // repeated first/last token
		{"joão da silva", false},              // lowercase leading token
		{"Nossa Senhora", false},              // possessive lead
		{"Associação dos Advogados", false},   // forbidden words
		{"João 2 Silva", false},               // digits
		{"A B C D E F G H", false},            // too many tokens
		{"Ana de Souza e Silva Costa", true},  // connectives stay lowercase
	}

	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.valid {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.valid)
		}
	}
}
