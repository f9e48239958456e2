package corpus

import (
	"reflect"
	"testing"
)

func TestCleanTextNormalizesWhitespace(t *testing.T) {
	in := "Diabetes  is a\tdisease.\n\n\n\nIt develops over years."
	want := "Diabetes is a disease.\n\nIt develops over years."
	if got := CleanText(in); got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextStripsAttribution(t *testing.T) {
	in := "Diabetes raises blood sugar. NIH: National Institute of Diabetes and Digestive and Kidney Diseases"
	got := CleanText(in)
	if got != "Diabetes raises blood sugar." {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestSearchTermsDeduplicatesAndSorts(t *testing.T) {
	got := SearchTerms("Diabetes", []string{"Sugar Diabetes", "diabetes", " "}, []string{"Diabetes Mellitus"})
	want := []string{"diabetes", "diabetes mellitus", "sugar diabetes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SearchTerms = %v, want %v", got, want)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name                                  string
		length, synonyms, meshTerms, related  int
		want                                  float64
	}{
		{"rich topic", 600, 4, 4, 5, 100},
		{"medium content few terms", 300, 2, 1, 3, 51},
		{"short content", 60, 0, 0, 0, 10},
		{"empty", 0, 0, 0, 0, 0},
		{"term counts capped", 600, 10, 10, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityScore(tt.length, tt.synonyms, tt.meshTerms, tt.related)
			if got != tt.want {
				t.Fatalf("QualityScore = %v, want %v", got, tt.want)
			}
		})
	}
}
