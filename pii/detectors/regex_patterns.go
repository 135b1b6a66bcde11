package pii

// PIIPatterns defines regex patterns for the structured PII categories.
// Formats follow Brazilian conventions (CPF, RG, DDD phone numbers).
// Patterns are deliberately loose: every detector over-matches and refinement
// happens in the resolver, never here.
var PIIPatterns = map[Category]string{
	CategoryCPF:   `\b\d{3}\.?\d{3}\.?\d{3}-?\d{1,2}\b`,
	CategoryRG:    `\b\d{1,2}\.?\d{3}\.?\d{3}-?[0-9Xx]\b`,
	CategoryEmail: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	CategoryPhone: `\b(?:\+55\s?)?(?:\(?\d{2}\)?\s?)?9?\d{4}-?\d{4}\b`,
}

// Address needs two pattern families: named streets with a logradouro prefix
// and lot/block style addresses common in planned cities.
const (
	StreetPattern = `(?i)\b(?:Rua|R\.|Avenida|Av\.?|Travessa|Tv\.?|Alameda|Estrada|Rodovia)\s+[A-Za-zÀ-ÿ0-9\s]{3,}`
	LotPattern    = `(?i)\b(?:Qd\.?|Quadra|Lt\.?|Lote|Bloco|BLC|Conjunto|CJ)\s*[A-Za-z0-9\-]+\b`

	// CEPPattern matches postal codes. A bare CEP is too weak a signal on
	// its own; it only counts when it appears near an address match.
	CEPPattern = `\b\d{5}-?\d{3}\b`
)
