package pii

import (
	"strings"
	"testing"

	detectors "github.com/hannes/esic-screener/pii/detectors"
)

func TestResolveDetections_PrecedenceOverValueCollision(t *testing.T) {
	// the same digit run matched both phone and RG patterns at different
	// spots; precedence attributes it to exactly one category
	text := "tel 6132654321 ... doc 6132654321"
	detections := []detectors.Detection{
		{Category: detectors.CategoryRG, Text: "6132654321", StartPos: 23, EndPos: 33},
		{Category: detectors.CategoryPhone, Text: "6132654321", StartPos: 4, EndPos: 14},
	}

	entities := ResolveDetections(text, detections)

	if len(entities[detectors.CategoryPhone]) != 1 {
		t.Errorf("Expected 1 phone value, got %v", entities[detectors.CategoryPhone])
	}
	if len(entities[detectors.CategoryRG]) != 0 {
		t.Errorf("Expected 0 RG values, got %v", entities[detectors.CategoryRG])
	}
}

func TestResolveDetections_OverlapDropsLowerPrecedence(t *testing.T) {
	// an RG-shaped run inside a span already claimed by CPF
	text := "meu RG 210.201.140-24 segue anexo"
	detections := []detectors.Detection{
		{Category: detectors.CategoryCPF, Text: "210.201.140-24", StartPos: 7, EndPos: 21},
		{Category: detectors.CategoryRG, Text: "210.201.140", StartPos: 7, EndPos: 18},
	}

	entities := ResolveDetections(text, detections)

	if len(entities[detectors.CategoryCPF]) != 1 {
		t.Errorf("Expected 1 CPF value, got %v", entities[detectors.CategoryCPF])
	}
	if len(entities[detectors.CategoryRG]) != 0 {
		t.Errorf("Expected overlapping RG to be dropped, got %v", entities[detectors.CategoryRG])
	}
}

func TestResolveDetections_RGContextGate(t *testing.T) {
	tests := []struct {
		name string
		text string
		kept bool
	}{
		{"identity marker", "portador do RG 12.345.678-9", true},
		{"registro geral", "registro geral 12.345.678-9", true},
		{"protocol context", "ver protocolo 12.345.678-9", false},
		{"process context", "no processo 12.345.678-9", false},
		{"no marker", "o número 12.345.678-9 consta", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := strings.Index(tt.text, "12.345.678-9")
			detections := []detectors.Detection{
				{Category: detectors.CategoryRG, Text: "12.345.678-9", StartPos: start, EndPos: start + len("12.345.678-9")},
			}

			entities := ResolveDetections(tt.text, detections)
			got := len(entities[detectors.CategoryRG]) > 0
			if got != tt.kept {
				t.Errorf("RG kept = %v, want %v", got, tt.kept)
			}
		})
	}
}

func TestResolveDetections_IntraCategoryDedup(t *testing.T) {
	text := "CPF 210.201.140-24 e de novo 21020114024"
	detections := []detectors.Detection{
		{Category: detectors.CategoryCPF, Text: "210.201.140-24", StartPos: 4, EndPos: 18},
		{Category: detectors.CategoryCPF, Text: "21020114024", StartPos: 29, EndPos: 40},
	}

	entities := ResolveDetections(text, detections)

	values := entities[detectors.CategoryCPF]
	if len(values) != 1 {
		t.Fatalf("Expected 1 CPF value after dedup, got %v", values)
	}
	if values[0] != "210.201.140-24" {
		t.Errorf("Expected first-seen literal to win, got '%s'", values[0])
	}
}

func TestResolveDetections_FirstOccurrenceOrder(t *testing.T) {
	text := "primeiro a@b.com depois c@d.com"
	detections := []detectors.Detection{
		{Category: detectors.CategoryEmail, Text: "c@d.com", StartPos: 24, EndPos: 31},
		{Category: detectors.CategoryEmail, Text: "a@b.com", StartPos: 9, EndPos: 16},
	}

	entities := ResolveDetections(text, detections)

	values := entities[detectors.CategoryEmail]
	if len(values) != 2 {
		t.Fatalf("Expected 2 email values, got %v", values)
	}
	if values[0] != "a@b.com" || values[1] != "c@d.com" {
		t.Errorf("Expected first-occurrence order, got %v", values)
	}
}

func TestResolveDetections_Empty(t *testing.T) {
	entities := ResolveDetections("sem nada", nil)
	if len(entities) != 0 {
		t.Errorf("Expected empty mapping, got %v", entities)
	}
}
