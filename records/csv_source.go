package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

// CSVSource streams records from a CSV export of the request spreadsheet.
// The text-bearing column is required; the id column is optional and rows
// get a generated id when it is absent.
type CSVSource struct {
	file    *os.File
	reader  *csv.Reader
	textIdx int
	idIdx   int // -1 when the source has no id column
	rowNum  int
}

// NewCSVSource opens the file and locates the configured columns in the
// header row. Column matching is case-insensitive.
func NewCSVSource(path, textColumn, idColumn string) (*CSVSource, error) {
	file, err := os.Open(path) // #nosec G304 - input path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("[CSVSource] Warning: failed to close file during cleanup: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	textIdx := -1
	idIdx := -1
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		if strings.EqualFold(trimmed, textColumn) {
			textIdx = i
		}
		if idColumn != "" && strings.EqualFold(trimmed, idColumn) {
			idIdx = i
		}
	}

	if textIdx == -1 {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("[CSVSource] Warning: failed to close file during cleanup: %v", closeErr)
		}
		return nil, fmt.Errorf("text column %q not found in header %v", textColumn, header)
	}

	return &CSVSource{
		file:    file,
		reader:  reader,
		textIdx: textIdx,
		idIdx:   idIdx,
	}, nil
}

// Next returns the next record with non-empty text. Malformed or empty rows
// are logged and skipped; they never abort the stream.
func (s *CSVSource) Next() (Record, error) {
	for {
		row, err := s.reader.Read()
		if err == io.EOF {
			return Record{}, io.EOF
		}
		s.rowNum++
		if err != nil {
			log.Printf("[CSVSource] skipping malformed row %d: %v", s.rowNum, err)
			continue
		}

		if s.textIdx >= len(row) {
			log.Printf("[CSVSource] skipping row %d: missing text column", s.rowNum)
			continue
		}

		text := strings.TrimSpace(row[s.textIdx])
		if text == "" {
			continue
		}

		id := ""
		if s.idIdx >= 0 && s.idIdx < len(row) {
			id = strings.TrimSpace(row[s.idIdx])
		}
		if id == "" {
			id = uuid.NewString()
		}

		return Record{ID: id, Text: text}, nil
	}
}

// Close closes the underlying file
func (s *CSVSource) Close() error {
	return s.file.Close()
}
