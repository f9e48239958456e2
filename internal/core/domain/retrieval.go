package domain

// QueryComplexity buckets a query for the result-count and alpha policies.
type QueryComplexity string

const (
	ComplexitySimple  QueryComplexity = "simple"
	ComplexityMedium  QueryComplexity = "medium"
	ComplexityComplex QueryComplexity = "complex"
)

// Intent is the classified shape of one query. It is derived once per request
// and read-only afterwards. The concept flags are not mutually exclusive;
// IsGeneral is true only when all six are false.
type Intent struct {
	IsSymptomQuery    bool            `json:"is_symptom_query"`
	IsTreatmentQuery  bool            `json:"is_treatment_query"`
	IsCauseQuery      bool            `json:"is_cause_query"`
	IsDiagnosisQuery  bool            `json:"is_diagnosis_query"`
	IsPreventionQuery bool            `json:"is_prevention_query"`
	IsDrugQuery       bool            `json:"is_drug_query"`
	IsGeneral         bool            `json:"is_general"`
	Complexity        QueryComplexity `json:"complexity"`
	PrimaryConcept    MedicalConcept  `json:"primary_concept"`
}

// EmbeddedQuery pairs the raw query text with its embedding for an index
// search. The index ranks by the vector; an embedded index with a lexical
// component may also consume the text.
type EmbeddedQuery struct {
	Text   string
	Vector []float32
}

// Candidate pairs a chunk with its per-request scores. It exists only within
// one retrieval call.
type Candidate struct {
	Chunk         Chunk   `json:"chunk"`
	Distance      float64 `json:"distance"`
	RawScore      float64 `json:"raw_score"`
	CombinedScore float64 `json:"combined_score"`
}

// QualityTier is the coarse retrieval-quality label.
type QualityTier string

const (
	TierExcellent QualityTier = "excellent"
	TierGood      QualityTier = "good"
	TierFair      QualityTier = "fair"
	TierPoor      QualityTier = "poor"
)

// RetrievalMetrics aggregates quality diagnostics over one final result list.
type RetrievalMetrics struct {
	Query            string      `json:"query"`
	ResultsCount     int         `json:"results_count"`
	AvgCombinedScore float64     `json:"avg_combined_score"`
	AvgQualityScore  float64     `json:"avg_quality_score"`
	RelevantResults  int         `json:"relevant_results"`
	RelevanceRatio   float64     `json:"relevance_ratio"`
	TopicsCovered    int         `json:"topics_covered"`
	QualityTier      QualityTier `json:"quality_tier"`
}
