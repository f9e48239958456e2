package usecase

import "github.com/healthquery/medical-rag/internal/core/domain"

// enforceDiversity walks the score-sorted list and caps repeated topics.
// Counters advance for every candidate walked; past the per-topic cap a
// candidate is admitted only when its score clears the diversity bar or its
// source is still rare in the output, which protects a scarce high-quality
// source from being starved. Admitted candidates keep their incoming order.
func enforceDiversity(candidates []domain.Candidate, w Weights) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	topicCount := make(map[string]int)
	sourceCount := make(map[domain.SourceDataset]int)
	out := make([]domain.Candidate, 0, len(candidates))

	for _, c := range candidates {
		topicCount[c.Chunk.TopicID]++
		sourceCount[c.Chunk.SourceDataset]++

		if topicCount[c.Chunk.TopicID] <= w.MaxSameTopic {
			out = append(out, c)
			continue
		}
		if c.CombinedScore > w.DiversityScoreBar || sourceCount[c.Chunk.SourceDataset] < w.DiversityRareSource {
			out = append(out, c)
		}
	}
	return out
}

// applyQualityThreshold trims low-score noise after diversification. When the
// trim would leave fewer than max(2, target) results, the pre-threshold list
// truncated to that size is returned instead so a weak corpus still answers.
func applyQualityThreshold(diversified []domain.Candidate, target int, w Weights) []domain.Candidate {
	quality := make([]domain.Candidate, 0, len(diversified))
	for _, c := range diversified {
		if c.CombinedScore > w.QualityScoreFloor {
			quality = append(quality, c)
		}
	}

	floor := target
	if floor < 2 {
		floor = 2
	}
	if len(quality) < floor && len(diversified) > len(quality) {
		if len(diversified) > floor {
			return diversified[:floor]
		}
		return diversified
	}
	return quality
}
