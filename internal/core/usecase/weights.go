package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// Weights is the single configurable table of scoring constants. One instance
// is built at startup and shared read-only by every request; the same source
// weight table feeds both the boosting step and the final alpha blend so the
// two can never silently diverge.
//
// The numeric values are empirically tuned starting points, not derived from
// a model. Deployments can override them with a YAML file (see LoadWeights)
// and should validate against their corpus.
type Weights struct {
	SourceWeights map[domain.SourceDataset]float64 `yaml:"source_weights"`

	ConceptMatchBoost float64 `yaml:"concept_match_boost"`
	KeywordBoost      float64 `yaml:"keyword_boost"`
	KeywordMatchCap   int     `yaml:"keyword_match_cap"`
	StructureBoost    float64 `yaml:"structure_boost"`

	DrugSourceBoost       float64 `yaml:"drug_source_boost"`
	BrandNameBoost        float64 `yaml:"brand_name_boost"`
	TreatmentMedlineBoost float64 `yaml:"treatment_medline_boost"`
	TreatmentDrugBoost    float64 `yaml:"treatment_drug_boost"`

	// Alpha blends vector similarity against corpus quality in the final
	// score; picked per intent.
	AlphaDrug    float64 `yaml:"alpha_drug"`
	AlphaGeneral float64 `yaml:"alpha_general"`
	AlphaComplex float64 `yaml:"alpha_complex"`
	AlphaDefault float64 `yaml:"alpha_default"`

	// Target result counts per query complexity, used only when the caller
	// supplies no explicit count.
	ResultsComplex int `yaml:"results_complex"`
	ResultsMedium  int `yaml:"results_medium"`
	ResultsSimple  int `yaml:"results_simple"`

	// Oversampling for the candidate fetch: min(OversampleFactor×target,
	// OversampleMax) candidates are pulled from the index.
	OversampleFactor int `yaml:"oversample_factor"`
	OversampleMax    int `yaml:"oversample_max"`

	// Relevance filter backfill and final quality trim.
	BackfillMinSurvivors int     `yaml:"backfill_min_survivors"`
	BackfillMaxAdded     int     `yaml:"backfill_max_added"`
	BackfillScoreFloor   float64 `yaml:"backfill_score_floor"`
	QualityScoreFloor    float64 `yaml:"quality_score_floor"`

	// Diversity enforcement.
	MaxSameTopic        int     `yaml:"max_same_topic"`
	DiversityScoreBar   float64 `yaml:"diversity_score_bar"`
	DiversityRareSource int     `yaml:"diversity_rare_source"`
}

// DefaultWeights returns the tuned starting configuration.
func DefaultWeights() Weights {
	return Weights{
		SourceWeights: map[domain.SourceDataset]float64{
			domain.SourceMedlinePlus:   1.5,
			domain.SourceFDADrugs:      1.4,
			domain.SourceMedicalMeadow: 1.0,
			domain.SourceUnknown:       1.0,
		},

		ConceptMatchBoost: 1.5,
		KeywordBoost:      0.2,
		KeywordMatchCap:   5,
		StructureBoost:    1.15,

		DrugSourceBoost:       2.5,
		BrandNameBoost:        1.5,
		TreatmentMedlineBoost: 1.8,
		TreatmentDrugBoost:    1.4,

		AlphaDrug:    0.6,
		AlphaGeneral: 0.7,
		AlphaComplex: 0.6,
		AlphaDefault: 0.8,

		ResultsComplex: 10,
		ResultsMedium:  8,
		ResultsSimple:  6,

		OversampleFactor: 3,
		OversampleMax:    30,

		BackfillMinSurvivors: 3,
		BackfillMaxAdded:     2,
		BackfillScoreFloor:   0.7,
		QualityScoreFloor:    0.3,

		MaxSameTopic:        2,
		DiversityScoreBar:   0.8,
		DiversityRareSource: 2,
	}
}

// LoadWeights reads a YAML override file on top of the defaults. An empty
// path returns the defaults unchanged.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parse weights file: %w", err)
	}
	return w.normalize(), nil
}

func (w Weights) normalize() Weights {
	def := DefaultWeights()
	out := w
	if len(out.SourceWeights) == 0 {
		out.SourceWeights = def.SourceWeights
	}
	if out.KeywordMatchCap <= 0 {
		out.KeywordMatchCap = def.KeywordMatchCap
	}
	if out.OversampleFactor <= 0 {
		out.OversampleFactor = def.OversampleFactor
	}
	if out.OversampleMax <= 0 {
		out.OversampleMax = def.OversampleMax
	}
	if out.MaxSameTopic <= 0 {
		out.MaxSameTopic = def.MaxSameTopic
	}
	if out.ResultsComplex <= 0 {
		out.ResultsComplex = def.ResultsComplex
	}
	if out.ResultsMedium <= 0 {
		out.ResultsMedium = def.ResultsMedium
	}
	if out.ResultsSimple <= 0 {
		out.ResultsSimple = def.ResultsSimple
	}
	return out
}

// SourceWeight looks up the unified per-source quality weight.
func (w Weights) SourceWeight(source domain.SourceDataset) float64 {
	if boost, ok := w.SourceWeights[source]; ok {
		return boost
	}
	return 1.0
}

// TargetResultCount maps query complexity to the default result count.
func (w Weights) TargetResultCount(intent domain.Intent) int {
	switch intent.Complexity {
	case domain.ComplexityComplex:
		return w.ResultsComplex
	case domain.ComplexityMedium:
		return w.ResultsMedium
	default:
		return w.ResultsSimple
	}
}

// Alpha is the intent→blend-weight lookup. Drug and complex queries lean
// harder on corpus quality; general queries sit in between.
func (w Weights) Alpha(intent domain.Intent) float64 {
	switch {
	case intent.IsDrugQuery:
		return w.AlphaDrug
	case intent.IsGeneral:
		return w.AlphaGeneral
	case intent.Complexity == domain.ComplexityComplex:
		return w.AlphaComplex
	default:
		return w.AlphaDefault
	}
}

// CandidateCount returns the oversampled fetch size for a target count.
func (w Weights) CandidateCount(target int) int {
	n := target * w.OversampleFactor
	if n > w.OversampleMax {
		n = w.OversampleMax
	}
	if n < target {
		n = target
	}
	return n
}
