package corpus

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

const (
	// chunkWordBudget is the paragraph-combining target; topics under it
	// become a single chunk.
	chunkWordBudget = 1500
	minChunkChars   = 30
	minParagraph    = 50
)

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// MedlinePlusParser turns a MedlinePlus health-topics XML export into chunks.
// Topics are streamed one element at a time; non-English topics are skipped.
type MedlinePlusParser struct{}

func NewMedlinePlusParser() *MedlinePlusParser {
	return &MedlinePlusParser{}
}

func (p *MedlinePlusParser) Source() domain.SourceDataset {
	return domain.SourceMedlinePlus
}

type healthTopic struct {
	ID           string   `xml:"id,attr"`
	Title        string   `xml:"title,attr"`
	Language     string   `xml:"language,attr"`
	AlsoCalled   []string `xml:"also-called"`
	FullSummary  string   `xml:"full-summary"`
	MeshHeadings []struct {
		Descriptor string `xml:"descriptor"`
	} `xml:"mesh-heading"`
	RelatedTopics []string `xml:"related-topic"`
	Groups        []string `xml:"group"`
}

func (p *MedlinePlusParser) Parse(r io.Reader) ([]domain.Chunk, error) {
	decoder := xml.NewDecoder(r)

	var chunks []domain.Chunk
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read health topics xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "health-topic" {
			continue
		}

		var topic healthTopic
		if err := decoder.DecodeElement(&topic, &start); err != nil {
			return nil, fmt.Errorf("decode health topic: %w", err)
		}
		if topic.Language != "" && topic.Language != "English" {
			continue
		}
		if strings.TrimSpace(topic.Title) == "" {
			continue
		}

		chunks = append(chunks, p.topicChunks(topic)...)
	}
	return chunks, nil
}

func (p *MedlinePlusParser) topicChunks(topic healthTopic) []domain.Chunk {
	content := CleanText(stripHTML(topic.FullSummary))
	if content == "" {
		return nil
	}

	synonyms := trimAll(topic.AlsoCalled)
	meshTerms := make([]string, 0, len(topic.MeshHeadings))
	for _, heading := range topic.MeshHeadings {
		if d := strings.TrimSpace(heading.Descriptor); d != "" {
			meshTerms = append(meshTerms, d)
		}
	}

	quality := QualityScore(len(content), len(synonyms), len(meshTerms), len(trimAll(topic.RelatedTopics)))
	searchTerms := SearchTerms(topic.Title, synonyms, meshTerms)

	parts := splitByWordBudget(content, chunkWordBudget)

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		if len(strings.TrimSpace(part)) < minChunkChars {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:              fmt.Sprintf("%s_%d", topic.ID, i+1),
			TopicID:         topic.ID,
			Title:           strings.TrimSpace(topic.Title),
			Content:         part,
			SourceDataset:   domain.SourceMedlinePlus,
			Synonyms:        synonyms,
			MeshTerms:       meshTerms,
			SearchTerms:     searchTerms,
			MedicalConcepts: ExtractConcepts(part),
			QualityScore:    quality,
			HasStructured:   HasStructured(part),
		})
	}
	return chunks
}

// splitByWordBudget combines paragraphs into chunks of at most budget words.
// Content under the budget stays whole.
func splitByWordBudget(content string, budget int) []string {
	if len(strings.Fields(content)) <= budget {
		return []string{content}
	}

	paragraphs := make([]string, 0)
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) > minParagraph {
			paragraphs = append(paragraphs, para)
		}
	}
	if len(paragraphs) == 0 {
		return []string{content}
	}

	var out []string
	var current strings.Builder
	currentWords := 0
	for _, para := range paragraphs {
		words := len(strings.Fields(para))
		if currentWords > 0 && currentWords+words > budget {
			out = append(out, current.String())
			current.Reset()
			currentWords = 0
		}
		if currentWords > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentWords += words
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func stripHTML(s string) string {
	return html.UnescapeString(htmlTags.ReplaceAllString(s, " "))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
