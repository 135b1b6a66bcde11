package pii

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// cepProximity is how close (in bytes) a CEP must be to an accepted address
// match to be folded into the endereco category.
const cepProximity = 40

// detectionOrder fixes iteration over the pattern registry so Detect is
// deterministic for identical input.
var detectionOrder = []Category{CategoryCPF, CategoryRG, CategoryEmail, CategoryPhone}

// RegexDetector implements Detector using regular expressions plus a
// lightweight format validator per category.
type RegexDetector struct {
	patterns   map[Category]*regexp.Regexp
	validators map[Category]func(string) bool
	street     *regexp.Regexp
	lot        *regexp.Regexp
	cep        *regexp.Regexp
}

func NewRegexDetector(patterns map[Category]string) *RegexDetector {
	regexMap := make(map[Category]*regexp.Regexp)
	for category, pattern := range patterns {
		regexMap[category] = regexp.MustCompile(pattern)
	}

	return &RegexDetector{
		patterns: regexMap,
		validators: map[Category]func(string) bool{
			CategoryCPF:   ValidCPFFormat,
			CategoryRG:    ValidRGFormat,
			CategoryPhone: ValidPhone,
		},
		street: regexp.MustCompile(StreetPattern),
		lot:    regexp.MustCompile(LotPattern),
		cep:    regexp.MustCompile(CEPPattern),
	}
}

// GetName returns the name of this detector
func (r *RegexDetector) GetName() string {
	return DetectorNameRegex
}

// Detect processes the input and returns validated candidate detections.
// Candidates still carry cross-category ambiguity (a digit run can match both
// phone and RG); the resolver owns that call.
func (r *RegexDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	var detections []Detection

	for _, category := range detectionOrder {
		pattern, ok := r.patterns[category]
		if !ok {
			continue
		}
		matches := pattern.FindAllStringIndex(input.Text, -1)
		for _, match := range matches {
			matchedText := input.Text[match[0]:match[1]]
			if validate, ok := r.validators[category]; ok && !validate(matchedText) {
				continue
			}
			detections = append(detections, Detection{
				Category: category,
				Text:     matchedText,
				StartPos: match[0],
				EndPos:   match[1],
			})
		}
	}

	detections = append(detections, r.detectAddresses(input.Text)...)

	return DetectorOutput{
		Text:       input.Text,
		Detections: detections,
	}, nil
}

// detectAddresses finds street and lot/block matches, then attaches CEPs that
// sit next to an accepted address.
func (r *RegexDetector) detectAddresses(text string) []Detection {
	var addresses []Detection

	for _, pattern := range []*regexp.Regexp{r.street, r.lot} {
		for _, match := range pattern.FindAllStringIndex(text, -1) {
			matchedText := text[match[0]:match[1]]
			trimmed := strings.TrimRight(matchedText, " \t\r\n")
			if !ValidAddress(trimmed) {
				continue
			}
			addresses = append(addresses, Detection{
				Category: CategoryAddress,
				Text:     trimmed,
				StartPos: match[0],
				EndPos:   match[0] + len(trimmed),
			})
		}
	}

	if len(addresses) == 0 {
		return nil
	}

	// CEPs anchor off street/lot matches only, never off other CEPs
	anchors := addresses[:len(addresses):len(addresses)]
	for _, match := range r.cep.FindAllStringIndex(text, -1) {
		for _, addr := range anchors {
			if match[0] >= addr.StartPos-cepProximity && match[0] <= addr.EndPos+cepProximity {
				addresses = append(addresses, Detection{
					Category: CategoryAddress,
					Text:     text[match[0]:match[1]],
					StartPos: match[0],
					EndPos:   match[1],
				})
				break
			}
		}
	}

	return addresses
}

// Close implements the Detector interface
func (r *RegexDetector) Close() error {
	// Regex detector doesn't need cleanup
	return nil
}

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidCPFFormat accepts any 11-digit sequence. The check digit is not
// verified: the classification goal is recall-biased and a transposed CPF in
// a request is still PII.
func ValidCPFFormat(cpf string) bool {
	return len(DigitsOnly(cpf)) == 11
}

// ValidRGFormat accepts 7 to 9 digits (the trailing X check character does
// not count). Format alone is weak proof; the resolver applies the
// contextual gate.
func ValidRGFormat(rg string) bool {
	n := len(DigitsOnly(rg))
	return n >= 7 && n <= 9
}

// ValidPhone accepts national numbers: 10 or 11 digits after dropping an
// optional +55 country prefix, with a DDD in 11..99.
func ValidPhone(tel string) bool {
	digits := DigitsOnly(tel)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	if len(digits) != 10 && len(digits) != 11 {
		return false
	}
	ddd, err := strconv.Atoi(digits[:2])
	if err != nil {
		return false
	}
	return ddd >= 11 && ddd <= 99
}

// ValidAddress requires a street-type token and at least one digit; a street
// name without a number does not identify a person.
func ValidAddress(addr string) bool {
	lower := strings.ToLower(addr)

	hasStreetToken := false
	for _, token := range []string{"rua", "r.", "avenida", "av", "travessa", "tv.", "alameda", "estrada", "rodovia", "quadra", "lote", "bloco", "conjunto", "cj", "qd", "lt"} {
		if strings.Contains(lower, token) {
			hasStreetToken = true
			break
		}
	}
	if !hasStreetToken {
		return false
	}

	return strings.ContainsAny(addr, "0123456789")
}
