package corpus

import (
	"reflect"
	"testing"
)

func TestExtractConcepts(t *testing.T) {
	text := "A common symptom is thirst. The usual treatment combines medication and diet. Screening catches it early."
	got := ExtractConcepts(text)
	want := []string{"symptoms", "treatment", "diagnosis"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractConcepts = %v, want %v", got, want)
	}
}

func TestExtractConceptsWholeWordOnly(t *testing.T) {
	// "symptomatic" must not match the "symptom" indicator.
	if got := ExtractConcepts("the patient was symptomatic"); got != nil {
		t.Fatalf("ExtractConcepts = %v, want none", got)
	}
}

func TestExtractConceptsEmpty(t *testing.T) {
	if got := ExtractConcepts("the weather was pleasant today"); got != nil {
		t.Fatalf("ExtractConcepts = %v, want none", got)
	}
}

func TestHasStructured(t *testing.T) {
	if !HasStructured("Symptoms: fever, chills. Treatment: rest and fluids.") {
		t.Fatal("expected structured text to be detected")
	}
	if HasStructured("a short story about a walk in the park") {
		t.Fatal("expected free prose to not be structured")
	}
}
