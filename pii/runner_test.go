package pii

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/hannes/esic-screener/records"
)

// sliceSource implements records.Source over a fixed slice.
type sliceSource struct {
	records []records.Record
	pos     int
	closed  bool
}

func (s *sliceSource) Next() (records.Record, error) {
	if s.pos >= len(s.records) {
		return records.Record{}, io.EOF
	}
	record := s.records[s.pos]
	s.pos++
	return record, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func TestRunner_PreservesInputOrder(t *testing.T) {
	var input []records.Record
	for i := 0; i < 50; i++ {
		text := "orçamento municipal"
		if i%3 == 0 {
			text = fmt.Sprintf("CPF 210.201.140-24 no pedido %d", i)
		}
		input = append(input, records.Record{ID: fmt.Sprintf("rec-%d", i), Text: text})
	}

	pipeline := newTestPipeline(&fakeTagger{})
	runner := NewRunner(pipeline, 8, 0)

	results, err := runner.Run(context.Background(), &sliceSource{records: input})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(results) != len(input) {
		t.Fatalf("Expected %d results, got %d", len(input), len(results))
	}
	for i, result := range results {
		wantID := fmt.Sprintf("rec-%d", i)
		if result.RecordID != wantID {
			t.Errorf("Result %d: expected record id %s, got %s", i, wantID, result.RecordID)
		}

		wantLabel := LabelPublic
		if i%3 == 0 {
			wantLabel = LabelNotPublic
		}
		if result.Label != wantLabel {
			t.Errorf("Result %d: expected %s, got %s", i, wantLabel, result.Label)
		}
	}
}

func TestRunner_SingleWorkerFloor(t *testing.T) {
	pipeline := newTestPipeline(&fakeTagger{})
	runner := NewRunner(pipeline, 0, 0)

	results, err := runner.Run(context.Background(), &sliceSource{records: []records.Record{
		{ID: "1", Text: "sem pii"},
	}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
}

func TestRunner_EmptySource(t *testing.T) {
	pipeline := newTestPipeline(&fakeTagger{})
	runner := NewRunner(pipeline, 4, 0)

	results, err := runner.Run(context.Background(), &sliceSource{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}
