package corpus

import (
	"regexp"
	"sort"
	"strings"
)

var (
	nihAttribution = regexp.MustCompile(`NIH:.*? Diseases`)
	whitespaceRun  = regexp.MustCompile(`[ \t\r\f]+`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
)

// CleanText strips boilerplate attribution and normalizes whitespace while
// keeping paragraph breaks, which the chunker splits on.
func CleanText(s string) string {
	s = nihAttribution.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// SearchTerms builds the deduplicated lowercase term set from a topic's
// title, synonyms and MeSH terms. Sorted for deterministic output.
func SearchTerms(title string, synonyms, meshTerms []string) []string {
	seen := make(map[string]struct{})
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			seen[term] = struct{}{}
		}
	}

	add(title)
	for _, s := range synonyms {
		add(s)
	}
	for _, m := range meshTerms {
		add(m)
	}

	out := make([]string, 0, len(seen))
	for term := range seen {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// QualityScore rates topic completeness on a 0..100 scale: content length up
// to 50 points, synonyms and MeSH terms up to 20 each, related topics up to
// 10.
func QualityScore(contentLength, synonymCount, meshTermCount, relatedCount int) float64 {
	score := 0.0

	switch {
	case contentLength > 500:
		score += 50
	case contentLength > 200:
		score += 30
	case contentLength > 50:
		score += 10
	}

	score += capPoints(synonymCount*5, 20)
	score += capPoints(meshTermCount*5, 20)
	score += capPoints(relatedCount*2, 10)
	return score
}

func capPoints(points, cap int) float64 {
	if points > cap {
		points = cap
	}
	return float64(points)
}
