package pii

import (
	"context"
	"strings"
	"unicode"

	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// Word lists for name cleanup and validation. All entries are stored
// lowercase and accent-folded; candidates are folded before comparison.
var (
	// honorific titles stripped from anywhere in a candidate name
	nameTitles = map[string]bool{
		"dr": true, "dra": true,
		"sr": true, "sra": true,
		"prof": true, "profa": true,
		"doutor": true, "doutora": true,
	}

	// trailing tokens that belong to the surrounding form, not the name
	nameGarbageSuffixes = map[string]bool{
		"cpf": true, "cnh": true, "rg": true, "nome": true,
	}

	// connective prepositions allowed lowercase inside a name
	nameConnectives = map[string]bool{
		"da": true, "de": true, "do": true, "das": true, "dos": true, "e": true,
	}

	// possessives that disqualify a span when they lead it
	namePossessives = map[string]bool{
		"nossa": true, "nosso": true, "suas": true, "seus": true,
	}

	// capitalized common words the NER model keeps mistaking for surnames
	nameForbiddenWords = map[string]bool{
		"associacao": true, "associados": true, "advogados": true,
		"sociedade": true, "servidores": true, "setor": true,
		"recursos": true, "coletiva": true, "magisterio": true,
		"telefonicas": true, "amostra": true, "total": true,
		"temperatura": true, "fosforo": true, "nitrogenio": true,
		"oxigenio": true, "validador": true, "solidos": true,
		"totais": true, "gostaria": true, "gostar": true, "venho": true,
	}

	// formal treatments; a span starting with one is an addressing form,
	// never a name
	formalTreatments = []string{
		"vossa senhoria",
		"vossa excelencia",
		"vossa magnificencia",
		"vossa alteza",
		"vossa santidade",
		"v. s.", "v.s.",
		"v. exa", "v.exa",
		"ilustrissimo senhor",
		"ilustrissima senhora",
		"excelentissimo senhor",
		"excelentissima senhora",
		"dignissimo senhor",
		"dignissima senhora",
		"meritissimo juiz",
		"meritissima juiza",
		"senhor secretario",
		"senhora secretaria",
		"senhor ministro",
		"senhora ministra",
		"senhor governador",
		"senhora governadora",
		"senhor prefeito",
		"senhora prefeita",
		"senhor presidente",
		"senhora presidente",
		"senhor juiz",
		"senhora juiza",
		"senhor desembargador",
		"senhora desembargadora",
		"senhor promotor",
		"senhora promotora",
		"senhor procurador",
		"senhora procuradora",
		"ilustres senhores",
		"ilustres senhoras",
		"vossas senhorias",
		"vossas excelencias",
	}
)

// TaggerProvider hands out the current entity tagger. A ModelManager
// implements this so the extractor always sees the latest model after a hot
// reload.
type TaggerProvider interface {
	GetTagger() (detectors.EntityTagger, error)
}

// NameExtractor turns PER spans from an entity-tagging capability into
// validated personal-name detections.
type NameExtractor struct {
	provider TaggerProvider
}

func NewNameExtractor(provider TaggerProvider) *NameExtractor {
	return &NameExtractor{provider: provider}
}

// Extract tags the text and returns cleaned name detections. Dedup is left
// to the resolver so all categories share one path.
func (e *NameExtractor) Extract(ctx context.Context, text string) ([]detectors.Detection, error) {
	tagger, err := e.provider.GetTagger()
	if err != nil {
		return nil, err
	}

	spans, err := tagger.Tag(ctx, text)
	if err != nil {
		return nil, err
	}

	var names []detectors.Detection
	for _, span := range spans {
		if span.Label != detectors.LabelPerson && span.Label != "PERSON" {
			continue
		}

		raw := strings.TrimSpace(span.Text)
		if hasFormalTreatmentPrefix(raw) {
			continue
		}

		clean := StripTitles(raw)
		clean = StripGarbageSuffixes(clean)
		if !ValidName(clean) {
			continue
		}

		names = append(names, detectors.Detection{
			Category: detectors.CategoryName,
			Text:     clean,
			StartPos: span.StartPos,
			EndPos:   span.EndPos,
		})
	}

	return names, nil
}

// foldToken lowercases, unaccents and strips surrounding punctuation from a
// single token for set lookups.
func foldToken(tok string) string {
	return strings.Trim(strings.ToLower(FoldDiacritics(tok)), ".,;:")
}

func hasFormalTreatmentPrefix(raw string) bool {
	folded := strings.ToLower(FoldDiacritics(raw))
	for _, treatment := range formalTreatments {
		if strings.HasPrefix(folded, treatment) {
			return true
		}
	}
	return false
}

// StripTitles removes honorific and professional titles from a candidate
// name.
func StripTitles(name string) string {
	var kept []string
	for _, tok := range strings.Fields(name) {
		if nameTitles[foldToken(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// StripGarbageSuffixes drops trailing tokens like "CPF" that leak from the
// surrounding form into the tagged span.
func StripGarbageSuffixes(name string) string {
	tokens := strings.Fields(name)
	for len(tokens) > 0 && nameGarbageSuffixes[foldToken(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// ValidName applies the structural checks: 2 to 7 tokens, proper-noun
// casing, no digits, connectives allowed lowercase, no forbidden words.
func ValidName(name string) bool {
	tokens := strings.Fields(name)

	if len(tokens) < 2 || len(tokens) > 7 {
		return false
	}

	if namePossessives[foldToken(tokens[0])] {
		return false
	}

	// a span like "Maria ... Maria" is a tagger artifact
	if tokens[0] == tokens[len(tokens)-1] {
		return false
	}

	for _, tok := range tokens {
		folded := foldToken(tok)

		if nameConnectives[folded] {
			continue
		}

		if nameForbiddenWords[folded] {
			return false
		}

		if strings.ContainsAny(tok, "0123456789") {
			return false
		}

		first, _ := firstRune(tok)
		if !unicode.IsUpper(first) {
			return false
		}
	}

	return true
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}
