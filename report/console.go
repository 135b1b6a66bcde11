// Package report renders classification results: a console reporter that
// reproduces the fixed output contract and an optional PostgreSQL store.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hannes/esic-screener/pii"
	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// displayOrder fixes the order of category lines in the report.
var displayOrder = []detectors.Category{
	detectors.CategoryCPF,
	detectors.CategoryRG,
	detectors.CategoryEmail,
	detectors.CategoryPhone,
	detectors.CategoryAddress,
	detectors.CategoryName,
}

// ConsoleReporter writes one block per record:
//
//	REGISTRO <id>
//	NÃO PÚBLICO
//	CPF: ['210.201.140-24']
//	NOME: ['Maria Martins Mota Silva']
//
// Category lines appear only when non-empty; a PÚBLICO record gets no
// entity lines at all. The quoted-list shape is part of the output contract
// consumed downstream.
type ConsoleReporter struct {
	w io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Report writes the block for one result.
func (r *ConsoleReporter) Report(result pii.ClassificationResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\nREGISTRO %s\n", result.RecordID)
	fmt.Fprintf(&b, "%s\n", result.Label)

	if result.Label == pii.LabelNotPublic {
		for _, category := range displayOrder {
			values := result.Entities[category]
			if len(values) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(category)), formatValueList(values))
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// ReportAll writes every result in order.
func (r *ConsoleReporter) ReportAll(results []pii.ClassificationResult) error {
	for _, result := range results {
		if err := r.Report(result); err != nil {
			return err
		}
	}
	return nil
}

// formatValueList renders values as a single-quoted list: ['a', 'b'].
func formatValueList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
