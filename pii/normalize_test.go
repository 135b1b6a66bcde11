package pii

import (
	"testing"
)

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Solicito informações  ")
	if got != "Solicito informações" {
		t.Errorf("Expected 'Solicito informações', got '%s'", got)
	}
}

func TestFoldDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"João", "Joao"},
		{"excelência", "excelencia"},
		{"Conceição", "Conceicao"},
		{"v. exª", "v. exa"},
		{"sem acento", "sem acento"},
	}

	for _, tt := range tests {
		if got := FoldDiacritics(tt.in); got != tt.want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"210.201.140-24", "21020114024"},
		{"21020114024", "21020114024"},
		{"  João  da Silva ", "joao da silva"},
		{"Contato@Exemplo.COM", "contatoexemplocom"},
	}

	for _, tt := range tests {
		if got := NormalizeValue(tt.in); got != tt.want {
			t.Errorf("NormalizeValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeValue_PunctuationInsensitiveEquality(t *testing.T) {
	if NormalizeValue("210.201.140-24") != NormalizeValue("21020114024") {
		t.Error("Expected punctuated and unpunctuated CPF to share a key")
	}
}
