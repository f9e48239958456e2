package corpus

import (
	"reflect"
	"strings"
	"testing"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

const healthTopicsXML = `<?xml version="1.0" encoding="UTF-8"?>
<health-topics total="3">
  <health-topic id="T100" title="Diabetes" language="English" url="https://medlineplus.gov/diabetes.html">
    <also-called>Sugar Diabetes</also-called>
    <full-summary>&lt;p&gt;Diabetes is a disease in which your blood glucose is too high. A frequent symptom is increased thirst. Treatment includes insulin and changes to your diet.&lt;/p&gt;</full-summary>
    <mesh-heading>
      <descriptor>Diabetes Mellitus</descriptor>
    </mesh-heading>
    <related-topic>Blood Sugar</related-topic>
  </health-topic>
  <health-topic id="T200" title="Diabetes tipo 2" language="Spanish">
    <full-summary>La diabetes es una enfermedad en la que los niveles de glucosa en la sangre son muy altos.</full-summary>
  </health-topic>
  <health-topic id="T300" title="Empty Topic" language="English">
    <full-summary></full-summary>
  </health-topic>
</health-topics>`

func TestMedlinePlusParse(t *testing.T) {
	parser := NewMedlinePlusParser()
	chunks, err := parser.Parse(strings.NewReader(healthTopicsXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}

	got := chunks[0]
	if got.ID != "T100_1" || got.TopicID != "T100" {
		t.Fatalf("unexpected ids: %q / %q", got.ID, got.TopicID)
	}
	if got.Title != "Diabetes" {
		t.Fatalf("Title = %q", got.Title)
	}
	if got.SourceDataset != domain.SourceMedlinePlus {
		t.Fatalf("SourceDataset = %q", got.SourceDataset)
	}
	if strings.Contains(got.Content, "<p>") {
		t.Fatalf("html not stripped: %q", got.Content)
	}
	if !strings.Contains(got.Content, "blood glucose is too high") {
		t.Fatalf("summary text lost: %q", got.Content)
	}
	if !reflect.DeepEqual(got.Synonyms, []string{"Sugar Diabetes"}) {
		t.Fatalf("Synonyms = %v", got.Synonyms)
	}
	if !reflect.DeepEqual(got.MeshTerms, []string{"Diabetes Mellitus"}) {
		t.Fatalf("MeshTerms = %v", got.MeshTerms)
	}
	wantTerms := []string{"diabetes", "diabetes mellitus", "sugar diabetes"}
	if !reflect.DeepEqual(got.SearchTerms, wantTerms) {
		t.Fatalf("SearchTerms = %v", got.SearchTerms)
	}
	wantConcepts := []string{"symptoms", "treatment"}
	if !reflect.DeepEqual(got.MedicalConcepts, wantConcepts) {
		t.Fatalf("MedicalConcepts = %v", got.MedicalConcepts)
	}
	if got.QualityScore <= 0 {
		t.Fatalf("QualityScore = %v", got.QualityScore)
	}
}

func TestMedlinePlusParseBadXML(t *testing.T) {
	parser := NewMedlinePlusParser()
	if _, err := parser.Parse(strings.NewReader("<health-topics><health-topic")); err == nil {
		t.Fatal("expected error for truncated xml")
	}
}

func TestSplitByWordBudget(t *testing.T) {
	paraA := strings.Repeat("alpha ", 12)
	paraB := strings.Repeat("bravo ", 12)
	content := strings.TrimSpace(paraA) + "\n\n" + strings.TrimSpace(paraB)

	parts := splitByWordBudget(content, 10)
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if !strings.HasPrefix(parts[0], "alpha") || !strings.HasPrefix(parts[1], "bravo") {
		t.Fatalf("paragraph order lost: %q / %q", parts[0], parts[1])
	}
}

func TestSplitByWordBudgetKeepsShortContentWhole(t *testing.T) {
	content := "first paragraph about a condition\n\nsecond paragraph about care"
	parts := splitByWordBudget(content, chunkWordBudget)
	if len(parts) != 1 || parts[0] != content {
		t.Fatalf("short content split: %v", parts)
	}
}
