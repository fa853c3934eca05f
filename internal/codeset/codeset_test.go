package codeset

import "testing"

func TestLabels(t *testing.T) {
	if got := FrequencyLabel(12); got != "Annual" {
		t.Errorf("Expected Annual, got %s", got)
	}
	if got := ScalarFactorLabel(3); got != "thousands" {
		t.Errorf("Expected thousands, got %s", got)
	}
	if got := SymbolLabel(2); got != "revised" {
		t.Errorf("Expected revised, got %s", got)
	}
	if got := StatusLabel(8); got != "confidential" {
		t.Errorf("Expected confidential, got %s", got)
	}
}

func TestUnknownCodeFallback(t *testing.T) {
	if got := FrequencyLabel(99); got != "unknown (99)" {
		t.Errorf("Expected fallback text, got %s", got)
	}
}
