package textextract

import (
	"reflect"
	"testing"
)

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"whitespace collapse", "  Government   of\tCanada  ", "government of canada"},
		{"diacritics stripped", "carte de résident permanent", "carte de resident permanent"},
		{"clipped tokens restored", "sident permanen anada", "resident permanent canada"},
		{"ocr misspelling fixed", "govemment of canad", "government of canada"},
		{"french misspelling fixed", "gouvemement du canada", "gouvernement du canada"},
		{"complete words untouched", "presidential permanence", "presidential permanence"},
		{"empty", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLine(tc.input); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestMergeLinesDedupesAndOrders(t *testing.T) {
	lines := []string{
		"1234-5678",
		"some random words here",
		"permanent resident card",
		"some random words here",
		"",
		"x",
	}

	got := MergeLines(lines)
	expected := []string{
		"permanent resident card",
		"some random words here",
		"1234-5678",
		"x",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v got %v", expected, got)
	}
}

func TestMergeLinesStrongTitlesFirst(t *testing.T) {
	got := MergeLines([]string{"zzz trailing", "gouvernement du canada"})
	if len(got) == 0 || got[0] != "gouvernement du canada" {
		t.Fatalf("strong title should lead, got %v", got)
	}
}

func TestIsWordyLine(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"date of birth", true},
		{"short", false},
		{"1234-5678 9012 3456", false},
		{"singlewordthatisquitelong", false},
	}

	for _, tc := range tests {
		if got := isWordyLine(tc.line); got != tc.expected {
			t.Fatalf("isWordyLine(%q) = %v, expected %v", tc.line, got, tc.expected)
		}
	}
}
