package pii

// Category identifies a PII category tracked by the screener.
type Category string

const (
	CategoryCPF     Category = "cpf"
	CategoryRG      Category = "rg"
	CategoryEmail   Category = "email"
	CategoryPhone   Category = "telefone"
	CategoryAddress Category = "endereco"
	CategoryName    Category = "nome"
)

// StrongCategories returns the fixed set of categories whose presence makes a
// request not public. Callers get a fresh slice and may trim it.
func StrongCategories() []Category {
	return []Category{
		CategoryCPF,
		CategoryRG,
		CategoryEmail,
		CategoryPhone,
		CategoryAddress,
		CategoryName,
	}
}

// DetectorInput represents the input for PII detection
type DetectorInput struct {
	Text string `json:"text"`
}

// Detection is a single PII match anchored to the source text
type Detection struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	StartPos int      `json:"start_pos"`
	EndPos   int      `json:"end_pos"`
}

// DetectorOutput represents the output of PII detection
type DetectorOutput struct {
	Text       string      `json:"text"`
	Detections []Detection `json:"detections"`
}

// TaggedSpan is a span returned by an entity-tagging capability. Label is the
// model's base label (without BIO prefixes); the only label the pipeline
// relies on is PER.
type TaggedSpan struct {
	Text       string
	Label      string
	StartPos   int
	EndPos     int
	Confidence float64
}

// LabelPerson is the entity label the name extractor consumes.
const LabelPerson = "PER"
