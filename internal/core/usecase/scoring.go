package usecase

import (
	"sort"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// scoreCandidates runs the hybrid boosting pass over the oversampled
// candidate set and fills CombinedScore on each. The input order is the
// index's distance order; the output is stably sorted by descending combined
// score, so exact ties keep their original index order.
func scoreCandidates(candidates []domain.Candidate, intent domain.Intent, query string, w Weights) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	alpha := w.Alpha(intent)
	queryLower := strings.ToLower(query)
	queryTerms := termSet(queryLower)

	scored := make([]domain.Candidate, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		c := &scored[i]
		c.Chunk.Normalize()

		c.RawScore = rawScore(c.Distance)
		sourceWeight := w.SourceWeight(c.Chunk.SourceDataset)
		qualityNorm := c.Chunk.QualityNorm()

		boosted := c.RawScore * sourceWeight

		if matches := keywordMatches(queryTerms, c.Chunk); matches > 0 {
			if matches > w.KeywordMatchCap {
				matches = w.KeywordMatchCap
			}
			boosted *= 1.0 + w.KeywordBoost*float64(matches)
		}

		if c.Chunk.HasStructured {
			boosted *= w.StructureBoost
		}

		boosted *= 0.9 + 0.2*qualityNorm

		conceptBonus := 1.0
		if conceptMatch(intent, queryLower, c.Chunk) {
			conceptBonus = w.ConceptMatchBoost
		}

		combined := alpha*boosted*conceptBonus*sourceWeight + (1.0-alpha)*qualityNorm
		combined *= intentSourceBoost(intent, queryLower, c.Chunk, w)

		c.CombinedScore = combined
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})
	return scored
}

// rawScore converts an index distance into base similarity.
func rawScore(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// conceptMatch reports whether a concept the query expresses is also
// expressed by the candidate's text or tagged concepts.
func conceptMatch(intent domain.Intent, queryLower string, chunk domain.Chunk) bool {
	if intent.PrimaryConcept != domain.ConceptGeneral {
		for _, tagged := range chunk.MedicalConcepts {
			if domain.MedicalConcept(tagged) == intent.PrimaryConcept {
				return true
			}
		}
	}

	docLower := strings.ToLower(chunk.Title + " " + chunk.Content)
	for concept, related := range conceptRelatedTerms {
		if !queryExpressesConcept(queryLower, concept, related) {
			continue
		}
		for _, term := range related {
			if strings.Contains(docLower, term) {
				return true
			}
		}
	}
	return false
}

func queryExpressesConcept(queryLower string, concept domain.MedicalConcept, related []string) bool {
	if strings.Contains(queryLower, string(concept)) {
		return true
	}
	for _, term := range related {
		if strings.Contains(queryLower, term) {
			return true
		}
	}
	return false
}

// keywordMatches counts query terms found in the union of the chunk's
// synonyms, MeSH terms, search terms and tagged concepts.
func keywordMatches(queryTerms map[string]struct{}, chunk domain.Chunk) int {
	if len(queryTerms) == 0 {
		return 0
	}

	matches := 0
	seen := make(map[string]struct{})
	for _, group := range [][]string{chunk.Synonyms, chunk.MeshTerms, chunk.SearchTerms, chunk.MedicalConcepts} {
		for _, keyword := range group {
			k := strings.ToLower(strings.TrimSpace(keyword))
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if _, ok := queryTerms[k]; ok {
				matches++
			}
		}
	}
	return matches
}

// intentSourceBoost applies the drug- and treatment-query source multipliers
// on top of the blended score.
func intentSourceBoost(intent domain.Intent, queryLower string, chunk domain.Chunk, w Weights) float64 {
	switch {
	case intent.IsDrugQuery && chunk.SourceDataset == domain.SourceFDADrugs:
		boost := w.DrugSourceBoost
		if brandNameInQuery(queryLower, chunk.BrandName) {
			boost *= w.BrandNameBoost
		}
		return boost
	case intent.IsTreatmentQuery && chunk.SourceDataset == domain.SourceMedlinePlus:
		return w.TreatmentMedlineBoost
	case intent.IsTreatmentQuery && chunk.SourceDataset == domain.SourceFDADrugs:
		return w.TreatmentDrugBoost
	default:
		return 1.0
	}
}

func brandNameInQuery(queryLower, brandName string) bool {
	brand := strings.ToLower(strings.TrimSpace(brandName))
	if brand == "" {
		return false
	}
	for _, token := range strings.Fields(brand) {
		if strings.Contains(queryLower, token) {
			return true
		}
	}
	return false
}

// termSet splits lowercase text into its whitespace-delimited terms.
func termSet(lower string) map[string]struct{} {
	fields := strings.Fields(lower)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
