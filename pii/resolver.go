package pii

import (
	"sort"
	"strings"

	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// categoryPrecedence orders categories from highest to lowest confidence.
// When two detections of different categories overlap in the text, the lower
// precedence one is dropped.
var categoryPrecedence = []detectors.Category{
	detectors.CategoryCPF,
	detectors.CategoryPhone,
	detectors.CategoryEmail,
	detectors.CategoryRG,
	detectors.CategoryAddress,
	detectors.CategoryName,
}

// rgContextWindow is how far back (in bytes) the resolver looks for a marker
// qualifying an RG-shaped digit run.
const rgContextWindow = 15

var (
	rgIdentityMarkers = []string{"rg", "registro geral", "identidade"}
	rgProtocolMarkers = []string{"protocolo", "processo", "nup"}
)

type claimedSpan struct {
	category detectors.Category
	startPos int
	endPos   int
}

// ResolveDetections reconciles the union of regex and name detections for
// one record into the classifier's input: per-category literal values,
// deduplicated, in first-occurrence order. Pure function of its arguments.
func ResolveDetections(text string, detections []detectors.Detection) map[detectors.Category][]string {
	byCategory := make(map[detectors.Category][]detectors.Detection)
	for _, d := range detections {
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}
	for _, dets := range byCategory {
		sort.SliceStable(dets, func(i, j int) bool {
			return dets[i].StartPos < dets[j].StartPos
		})
	}

	entities := make(map[detectors.Category][]string)
	usedValues := make(map[string]bool)
	var claimed []claimedSpan

	for _, category := range categoryPrecedence {
		for _, det := range byCategory[category] {
			if category == detectors.CategoryRG && !rgContextOK(text, det) {
				continue
			}

			if overlapsOtherCategory(det, claimed) {
				continue
			}

			// cross-category and intra-category value dedup share one
			// key space: a number counted as telefone is never
			// re-counted as rg even without span overlap
			key := NormalizeValue(det.Text)
			if key == "" || usedValues[key] {
				continue
			}
			usedValues[key] = true

			claimed = append(claimed, claimedSpan{category: category, startPos: det.StartPos, endPos: det.EndPos})
			entities[category] = append(entities[category], det.Text)
		}
	}

	return entities
}

// rgContextOK decides whether an RG-shaped match is really an identity
// document number. Protocol/process numbering contexts disqualify it; an
// identity marker in the preceding window is required to keep it. This is a
// contextual gate, not a denylist of values.
func rgContextOK(text string, det detectors.Detection) bool {
	start := det.StartPos - rgContextWindow
	if start < 0 {
		start = 0
	}
	window := strings.ToLower(FoldDiacritics(text[start:det.StartPos]))

	for _, marker := range rgProtocolMarkers {
		if strings.Contains(window, marker) {
			return false
		}
	}
	for _, marker := range rgIdentityMarkers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

// overlapsOtherCategory reports whether det overlaps a span already claimed
// by a different (higher precedence) category. Same-category overlap is
// allowed; dedup handles it by value.
func overlapsOtherCategory(det detectors.Detection, claimed []claimedSpan) bool {
	for _, span := range claimed {
		if span.category == det.Category {
			continue
		}
		if det.StartPos < span.endPos && span.startPos < det.EndPos {
			return true
		}
	}
	return false
}
