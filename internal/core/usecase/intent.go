package usecase

import (
	"regexp"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// IntentRules holds the compiled pattern groups for query-intent
// classification. Built once at startup and shared read-only across requests,
// so ClassifyIntent stays a pure function with no per-request allocation of
// pattern state.
type IntentRules struct {
	symptom    []*regexp.Regexp
	treatment  []*regexp.Regexp
	cause      []*regexp.Regexp
	diagnosis  []*regexp.Regexp
	prevention []*regexp.Regexp
	drug       []*regexp.Regexp

	// primaryConcepts is ordered: the first concept whose indicator matches
	// wins, so classification stays deterministic.
	primaryConcepts []conceptIndicators
}

type conceptIndicators struct {
	concept    domain.MedicalConcept
	indicators []string
}

// conceptRelatedTerms maps each query concept to the document-side terms that
// express it. The scorer uses it for the concept-match boost.
var conceptRelatedTerms = map[domain.MedicalConcept][]string{
	domain.ConceptSymptoms:   {"symptom", "sign", "manifestation", "presentation", "indication", "complaint", "experience"},
	domain.ConceptTreatment:  {"treatment", "therapy", "medication", "management", "drug", "cure", "intervention", "prescription"},
	domain.ConceptCauses:     {"cause", "etiology", "reason", "risk factor", "trigger", "pathogenesis"},
	domain.ConceptDiagnosis:  {"diagnosis", "test", "examination", "screening", "detection", "assessment"},
	domain.ConceptPrevention: {"prevention", "prevent", "avoid", "protection", "prophylaxis", "lifestyle"},
	domain.ConceptDrugs:      {"drug", "medicine", "medication", "pharmaceutical", "pill", "tablet", "capsule", "dosage"},
}

// DefaultIntentRules compiles the static medical pattern tables.
func DefaultIntentRules() *IntentRules {
	return &IntentRules{
		symptom: compileAll(
			`symptom`, `signs?`, `pain`, `hurt`, `ache`, `fever`, `cough`,
			`headache`, `nausea`, `vomit`, `dizzy`, `fatigue`, `weakness`,
			`thirst`, `hunger`, `urination`, `vision`, `breath`, `chest`,
			`feel`, `experience`, `manifestation`,
		),
		treatment: compileAll(
			`treatment`, `treat`, `cure`, `medicine`, `drug`, `therapy`,
			`medication`, `surgery`, `remedy`, `management`, `how to`,
			`what.*do`, `how.*treat`,
		),
		cause: compileAll(
			`cause`, `causes`, `why`, `reason`, `risk factor`, `what causes`,
			`what leads to`, `what.*cause`, `why.*happen`, `etiology`,
		),
		diagnosis: compileAll(
			`diagnos`, `test`, `examination`, `screening`, `detect`,
			`identify`, `how.*know`, `how.*diagnose`, `assessment`,
		),
		prevention: compileAll(
			`prevent`, `prevention`, `avoid`, `protection`, `prophylaxis`,
			`how.*prevent`, `how.*avoid`, `stop.*from`,
		),
		drug: compileAll(
			`drug`, `medicine`, `medication`, `pill`, `tablet`, `capsule`,
			`prescription`, `otc`, `over.the.counter`, `pharmaceutical`,
			`treatment`, `therapy`, `dosage`, `dose`, `ingredient`,
			`side effect`, `warning`, `contraindication`, `interaction`,
			`brand`, `generic`, `manufacturer`, `fda`, `approval`,
			`suggest`, `recommend`, `what.*take`, `what.*use`,
		),
		primaryConcepts: []conceptIndicators{
			{domain.ConceptSymptoms, conceptRelatedTerms[domain.ConceptSymptoms]},
			{domain.ConceptTreatment, conceptRelatedTerms[domain.ConceptTreatment]},
			{domain.ConceptCauses, conceptRelatedTerms[domain.ConceptCauses]},
			{domain.ConceptDiagnosis, conceptRelatedTerms[domain.ConceptDiagnosis]},
			{domain.ConceptPrevention, conceptRelatedTerms[domain.ConceptPrevention]},
			{domain.ConceptDrugs, conceptRelatedTerms[domain.ConceptDrugs]},
		},
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// ClassifyIntent derives the immutable Intent record from a raw query.
// Deterministic: pure function of the text and the static tables.
func ClassifyIntent(rules *IntentRules, query string) domain.Intent {
	lower := strings.ToLower(query)

	intent := domain.Intent{
		IsSymptomQuery:    anyMatch(rules.symptom, lower),
		IsTreatmentQuery:  anyMatch(rules.treatment, lower),
		IsCauseQuery:      anyMatch(rules.cause, lower),
		IsDiagnosisQuery:  anyMatch(rules.diagnosis, lower),
		IsPreventionQuery: anyMatch(rules.prevention, lower),
		IsDrugQuery:       anyMatch(rules.drug, lower),
		Complexity:        assessComplexity(query),
		PrimaryConcept:    rules.primaryConcept(lower),
	}

	intent.IsGeneral = !intent.IsSymptomQuery &&
		!intent.IsTreatmentQuery &&
		!intent.IsCauseQuery &&
		!intent.IsDiagnosisQuery &&
		!intent.IsPreventionQuery &&
		!intent.IsDrugQuery

	return intent
}

func anyMatch(patterns []*regexp.Regexp, lower string) bool {
	for _, p := range patterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// primaryConcept scans the ordered concept→indicator table and returns the
// first concept whose indicator appears as a whole word, or standalone at the
// start or end of the query.
func (r *IntentRules) primaryConcept(lower string) domain.MedicalConcept {
	padded := " " + lower + " "
	for _, entry := range r.primaryConcepts {
		for _, indicator := range entry.indicators {
			if strings.Contains(padded, " "+indicator+" ") ||
				strings.HasPrefix(lower, indicator) ||
				strings.HasSuffix(lower, indicator) {
				return entry.concept
			}
		}
	}
	return domain.ConceptGeneral
}

// assessComplexity buckets a query by word count, long-term density and
// question structure. Words longer than 8 characters stand in for medical
// terminology.
func assessComplexity(query string) domain.QueryComplexity {
	words := strings.Fields(query)
	wordCount := len(words)

	longWords := 0
	for _, w := range words {
		if len(w) > 8 && containsLetter(w) {
			longWords++
		}
	}

	lower := strings.ToLower(query)
	multiQuestion := strings.Count(query, "?") > 1 ||
		(strings.Contains(lower, " and ") && strings.Contains(query, "?"))

	switch {
	case wordCount > 12 || longWords > 3 || multiQuestion:
		return domain.ComplexityComplex
	case wordCount > 6 || longWords > 1:
		return domain.ComplexityMedium
	default:
		return domain.ComplexitySimple
	}
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
