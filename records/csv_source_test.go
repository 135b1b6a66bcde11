package records

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write temp csv: %v", err)
	}
	return path
}

func drain(t *testing.T, source Source) []Record {
	t.Helper()
	var out []Record
	for {
		record, err := source.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		out = append(out, record)
	}
}

func TestCSVSource_WithIDColumn(t *testing.T) {
	path := writeTempCSV(t, "Protocolo,Texto Mascarado\n123,Primeiro pedido\n456,Segundo pedido\n")

	source, err := NewCSVSource(path, "Texto Mascarado", "Protocolo")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer source.Close()

	got := drain(t, source)

	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].ID != "123" || got[0].Text != "Primeiro pedido" {
		t.Errorf("Unexpected first record: %+v", got[0])
	}
	if got[1].ID != "456" {
		t.Errorf("Expected id '456', got '%s'", got[1].ID)
	}
}

func TestCSVSource_GeneratedIDs(t *testing.T) {
	path := writeTempCSV(t, "Texto Mascarado\nPedido um\nPedido dois\n")

	source, err := NewCSVSource(path, "Texto Mascarado", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer source.Close()

	got := drain(t, source)

	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].ID == "" || got[1].ID == "" {
		t.Error("Expected generated ids for id-less rows")
	}
	if got[0].ID == got[1].ID {
		t.Error("Expected distinct generated ids")
	}
}

func TestCSVSource_SkipsEmptyText(t *testing.T) {
	path := writeTempCSV(t, "id,Texto Mascarado\n1,Pedido válido\n2,\n3,   \n4,Outro pedido\n")

	source, err := NewCSVSource(path, "Texto Mascarado", "id")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer source.Close()

	got := drain(t, source)

	if len(got) != 2 {
		t.Fatalf("Expected 2 records after skipping empty text, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("Unexpected records: %+v", got)
	}
}

func TestCSVSource_CaseInsensitiveHeader(t *testing.T) {
	path := writeTempCSV(t, "TEXTO MASCARADO\nPedido\n")

	source, err := NewCSVSource(path, "Texto Mascarado", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer source.Close()

	got := drain(t, source)
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
}

func TestCSVSource_MissingTextColumn(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,2\n")

	if _, err := NewCSVSource(path, "Texto Mascarado", ""); err == nil {
		t.Error("Expected error for missing text column")
	}
}

func TestCSVSource_ShortRowsSkipped(t *testing.T) {
	path := writeTempCSV(t, "id,extra,Texto Mascarado\n1,x,Pedido um\n2,x\n3,x,Pedido três\n")

	source, err := NewCSVSource(path, "Texto Mascarado", "id")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer source.Close()

	got := drain(t, source)
	if len(got) != 2 {
		t.Fatalf("Expected 2 records (short row skipped), got %d", len(got))
	}
}
