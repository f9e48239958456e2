package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// MeadowParser converts a Medical Meadow QA JSON dump into chunks, one per
// question/answer pair.
type MeadowParser struct{}

func NewMeadowParser() *MeadowParser {
	return &MeadowParser{}
}

func (p *MeadowParser) Source() domain.SourceDataset {
	return domain.SourceMedicalMeadow
}

type meadowItem struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// questionPrefixes are stripped when deriving a topic title from the
// question text, most specific first.
var questionPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^can you provide (?:an? )?overview of `),
	regexp.MustCompile(`(?i)^can you provide me with information regarding `),
	regexp.MustCompile(`(?i)^can you provide a brief summary of `),
	regexp.MustCompile(`(?i)^what are the historical background and symptoms of `),
	regexp.MustCompile(`(?i)^what is the information regarding `),
	regexp.MustCompile(`(?i)^what is `),
	regexp.MustCompile(`(?i)^what are `),
	regexp.MustCompile(`(?i)^how does `),
	regexp.MustCompile(`(?i)^how do `),
	regexp.MustCompile(`(?i)^can you explain `),
}

var titleArticle = regexp.MustCompile(`(?i)^(?:about|regarding|on|the)\s+`)

func (p *MeadowParser) Parse(r io.Reader) ([]domain.Chunk, error) {
	var items []meadowItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode medical meadow json: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(items))
	for i, item := range items {
		chunk, ok := p.itemChunk(item, i)
		if ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (p *MeadowParser) itemChunk(item meadowItem, index int) (domain.Chunk, bool) {
	question := strings.TrimSpace(strings.ReplaceAll(item.Input, "Answer this question truthfully", ""))
	question = strings.TrimPrefix(question, ": ")
	answer := strings.TrimSpace(item.Output)
	if answer == "" {
		return domain.Chunk{}, false
	}

	title := meadowTitle(question, index)
	content := CleanText(question + "\n\n" + answer)
	id := fmt.Sprintf("meadow_%05d", index+1)

	return domain.Chunk{
		ID:              id,
		TopicID:         id,
		Title:           title,
		Content:         content,
		SourceDataset:   domain.SourceMedicalMeadow,
		SearchTerms:     SearchTerms(title, nil, nil),
		MedicalConcepts: ExtractConcepts(content),
		QualityScore:    meadowQuality(content, answer),
		HasStructured:   HasStructured(answer),
	}, true
}

func meadowTitle(question string, index int) string {
	title := strings.TrimSpace(strings.TrimSuffix(question, "?"))
	for _, prefix := range questionPrefixes {
		title = prefix.ReplaceAllString(title, "")
	}
	title = titleArticle.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)

	if len(title) < 2 {
		return fmt.Sprintf("Medical Topic %d", index+1)
	}
	return capitalizeFirst(title)
}

// meadowQuality rates QA pairs by answer substance; concise dumps rarely
// carry synonym or MeSH metadata, so length dominates.
func meadowQuality(content, answer string) float64 {
	score := 20.0

	answerWords := len(strings.Fields(answer))
	switch {
	case answerWords > 100:
		score += 40
	case answerWords > 40:
		score += 30
	case answerWords > 15:
		score += 20
	}

	if HasStructured(answer) {
		score += 15
	}
	if len(content) > 500 {
		score += 10
	}
	return score
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
