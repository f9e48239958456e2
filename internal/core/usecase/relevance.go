package usecase

import (
	"regexp"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// commonConditions is the curated list scanned first during main-condition
// extraction. Substring scan, in order.
var commonConditions = []string{
	"acne", "headache", "fever", "cough", "dengue", "diabetes", "hypertension",
	"asthma", "dermatitis", "arthritis", "influenza", "flu", "covid", "malaria",
	"allergy", "migraine", "obesity", "anemia", "anxiety", "depression",
}

// conditionPatterns capture the condition from common question shapes when no
// curated condition matched.
var conditionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`symptoms of (\w+)`),
	regexp.MustCompile(`treatment for (\w+)`),
	regexp.MustCompile(`what causes (\w+)`),
	regexp.MustCompile(`how to treat (\w+)`),
	regexp.MustCompile(`what is (\w+)`),
}

// relevanceStopwords are excluded from the term-overlap fallback test.
var relevanceStopwords = map[string]struct{}{
	"what": {}, "are": {}, "the": {}, "symptoms": {}, "of": {},
	"and": {}, "or": {}, "is": {}, "for": {},
}

// extractMainCondition finds the query's main medical subject: curated list
// first, then question-shape capture groups longer than 3 characters.
// Returns "" when nothing qualifies.
func extractMainCondition(queryLower string) string {
	for _, condition := range commonConditions {
		if strings.Contains(queryLower, condition) {
			return condition
		}
	}

	for _, pattern := range conditionPatterns {
		m := pattern.FindStringSubmatch(queryLower)
		if len(m) == 2 && len(m[1]) > 3 {
			return m[1]
		}
	}
	return ""
}

// isCandidateRelevant applies the strict title/content term-match test tied
// to the query's main subject. High-scoring candidates (combined > 0.8) pass
// on any mention; the rest need a title match or a repeated content match.
func isCandidateRelevant(c domain.Candidate, queryLower, mainCondition string) bool {
	title := strings.ToLower(c.Chunk.Title)
	content := strings.ToLower(c.Chunk.Content)

	if mainCondition != "" {
		inTitle := strings.Contains(title, mainCondition)
		inContent := strings.Contains(content, mainCondition)

		if c.CombinedScore > 0.8 {
			return inTitle || inContent
		}
		return inTitle || (inContent && strings.Count(content, mainCondition) >= 2)
	}

	// No extractable condition: fall back to term overlap with non-stopword
	// query terms longer than 3 characters.
	titleMatches, contentMatches := 0, 0
	for term := range termSet(queryLower) {
		if len(term) <= 3 {
			continue
		}
		if _, stop := relevanceStopwords[term]; stop {
			continue
		}
		if strings.Contains(title, term) {
			titleMatches++
		}
		if strings.Contains(content, term) {
			contentMatches++
		}
	}
	return titleMatches >= 1 || contentMatches >= 2
}

// filterByRelevance drops scored candidates failing the strict relevance
// test, then backfills from the highest-scoring dropped candidates when too
// few survive, so well-matched but title-mismatched content does not produce
// near-empty results.
func filterByRelevance(scored []domain.Candidate, query string, w Weights) []domain.Candidate {
	queryLower := strings.ToLower(query)
	mainCondition := extractMainCondition(queryLower)

	kept := make([]domain.Candidate, 0, len(scored))
	dropped := make([]domain.Candidate, 0)
	for _, c := range scored {
		if isCandidateRelevant(c, queryLower, mainCondition) {
			kept = append(kept, c)
		} else {
			dropped = append(dropped, c)
		}
	}

	if len(kept) >= w.BackfillMinSurvivors {
		return kept
	}

	// Backfilled entries append after the survivors: a recovered candidate
	// never outranks one that passed the relevance test.
	added := 0
	for _, c := range dropped {
		if added >= w.BackfillMaxAdded {
			break
		}
		if c.CombinedScore > w.BackfillScoreFloor {
			kept = append(kept, c)
			added++
		}
	}
	return kept
}
