package usecase

import (
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// reportMetrics computes the retrieval-quality diagnostics over a final
// result list. Empty input yields a well-formed zero record with tier poor,
// never an error.
func reportMetrics(query string, results []domain.Candidate) domain.RetrievalMetrics {
	metrics := domain.RetrievalMetrics{
		Query:       query,
		QualityTier: domain.TierPoor,
	}
	if len(results) == 0 {
		return metrics
	}

	queryLower := strings.ToLower(query)
	mainCondition := extractMainCondition(queryLower)

	topics := make(map[string]struct{}, len(results))
	var scoreSum, qualitySum float64
	relevant := 0
	for _, c := range results {
		scoreSum += c.CombinedScore
		qualitySum += c.Chunk.QualityScore
		topics[c.Chunk.TopicID] = struct{}{}
		if isCandidateRelevant(c, queryLower, mainCondition) {
			relevant++
		}
	}

	n := float64(len(results))
	metrics.ResultsCount = len(results)
	metrics.AvgCombinedScore = scoreSum / n
	metrics.AvgQualityScore = qualitySum / n
	metrics.RelevantResults = relevant
	metrics.RelevanceRatio = float64(relevant) / n
	metrics.TopicsCovered = len(topics)
	metrics.QualityTier = qualityTier(metrics.AvgCombinedScore, metrics.RelevanceRatio)

	return metrics
}

func qualityTier(avgScore, relevanceRatio float64) domain.QualityTier {
	switch {
	case avgScore > 0.8 && relevanceRatio > 0.8:
		return domain.TierExcellent
	case avgScore > 0.6 && relevanceRatio > 0.6:
		return domain.TierGood
	case avgScore > 0.4 && relevanceRatio > 0.4:
		return domain.TierFair
	default:
		return domain.TierPoor
	}
}
