package domain

import "strings"

// SourceDataset identifies which corpus a chunk came from. The source drives
// the scoring weight tables, so unknown values are normalized rather than
// rejected.
type SourceDataset string

const (
	SourceMedlinePlus   SourceDataset = "medline_plus"
	SourceMedicalMeadow SourceDataset = "medical_meadow"
	SourceFDADrugs      SourceDataset = "fda_drugs"
	SourceUnknown       SourceDataset = "unknown"
)

// ParseSourceDataset maps free-form source labels onto the known datasets.
func ParseSourceDataset(s string) SourceDataset {
	switch SourceDataset(strings.ToLower(strings.TrimSpace(s))) {
	case SourceMedlinePlus:
		return SourceMedlinePlus
	case SourceMedicalMeadow:
		return SourceMedicalMeadow
	case SourceFDADrugs:
		return SourceFDADrugs
	default:
		return SourceUnknown
	}
}

// MedicalConcept is one of the fixed concept categories used by intent
// classification and concept tagging.
type MedicalConcept string

const (
	ConceptSymptoms   MedicalConcept = "symptoms"
	ConceptTreatment  MedicalConcept = "treatment"
	ConceptCauses     MedicalConcept = "causes"
	ConceptDiagnosis  MedicalConcept = "diagnosis"
	ConceptPrevention MedicalConcept = "prevention"
	ConceptDrugs      MedicalConcept = "drugs"
	ConceptGeneral    MedicalConcept = "general"
)

// ConceptVocabulary lists every taggable concept, in classification order.
var ConceptVocabulary = []MedicalConcept{
	ConceptSymptoms,
	ConceptTreatment,
	ConceptCauses,
	ConceptDiagnosis,
	ConceptPrevention,
	ConceptDrugs,
}

// DefaultQualityScore is assumed for chunks whose source carries no quality
// signal. Quality is kept on a 0..100 scale in storage and normalized to
// [0,1] only inside scoring.
const DefaultQualityScore = 50.0

// Chunk is one indexed unit of medical knowledge with the metadata the
// scoring pipeline consumes. Title and Content are always present after
// Normalize; the term sets may be empty depending on the source dataset.
type Chunk struct {
	ID            string        `json:"id"`
	TopicID       string        `json:"topic_id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	SourceDataset SourceDataset `json:"source_dataset"`

	Synonyms        []string `json:"synonyms,omitempty"`
	MeshTerms       []string `json:"mesh_terms,omitempty"`
	SearchTerms     []string `json:"search_terms,omitempty"`
	MedicalConcepts []string `json:"medical_concepts,omitempty"`

	QualityScore  float64 `json:"quality_score"`
	HasStructured bool    `json:"has_structured"`

	// Drug-label fields, populated for fda_drugs chunks only.
	BrandName   string `json:"brand_name,omitempty"`
	GenericName string `json:"generic_name,omitempty"`
}

// Normalize fills the defaults missing metadata would otherwise break
// scoring with. Safe to call repeatedly.
func (c *Chunk) Normalize() {
	if c.SourceDataset == "" {
		c.SourceDataset = SourceUnknown
	}
	if c.QualityScore <= 0 {
		c.QualityScore = DefaultQualityScore
	}
	if c.TopicID == "" {
		c.TopicID = c.ID
	}
}

// QualityNorm returns the quality score mapped onto [0,1].
func (c *Chunk) QualityNorm() float64 {
	q := c.QualityScore / 100.0
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}
