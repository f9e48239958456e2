package qdrant

import (
	"fmt"
	"strings"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// Term sets travel pipe-joined inside the qdrant payload; this is strictly a
// wire encoding at this boundary, the domain always sees slices.
const setSeparator = "|"

func chunkToPayload(c domain.Chunk) map[string]any {
	return map[string]any{
		"chunk_id":         c.ID,
		"topic_id":         c.TopicID,
		"title":            c.Title,
		"content":          c.Content,
		"source_dataset":   string(c.SourceDataset),
		"synonyms":         joinSet(c.Synonyms),
		"mesh_terms":       joinSet(c.MeshTerms),
		"search_terms":     joinSet(c.SearchTerms),
		"medical_concepts": joinSet(c.MedicalConcepts),
		"quality_score":    c.QualityScore,
		"has_structured":   c.HasStructured,
		"brand_name":       c.BrandName,
		"generic_name":     c.GenericName,
	}
}

func payloadToChunk(payload map[string]any) domain.Chunk {
	c := domain.Chunk{
		ID:              payloadString(payload, "chunk_id"),
		TopicID:         payloadString(payload, "topic_id"),
		Title:           payloadString(payload, "title"),
		Content:         payloadString(payload, "content"),
		SourceDataset:   domain.ParseSourceDataset(payloadString(payload, "source_dataset")),
		Synonyms:        splitSet(payloadString(payload, "synonyms")),
		MeshTerms:       splitSet(payloadString(payload, "mesh_terms")),
		SearchTerms:     splitSet(payloadString(payload, "search_terms")),
		MedicalConcepts: splitSet(payloadString(payload, "medical_concepts")),
		QualityScore:    payloadFloat(payload, "quality_score"),
		BrandName:       payloadString(payload, "brand_name"),
		GenericName:     payloadString(payload, "generic_name"),
	}
	if v, ok := payload["has_structured"].(bool); ok {
		c.HasStructured = v
	}
	c.Normalize()
	return c
}

func joinSet(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, setSeparator)
}

func splitSet(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, setSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
