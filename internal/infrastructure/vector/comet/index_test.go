package comet

import (
	"context"
	"testing"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

func indexedChunk(id, title, content string) domain.Chunk {
	return domain.Chunk{
		ID:            id,
		TopicID:       "topic-" + id,
		Title:         title,
		Content:       content,
		SourceDataset: domain.SourceMedlinePlus,
		QualityScore:  60,
	}
}

func TestIndexAndSearch(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chunks := []domain.Chunk{
		indexedChunk("c1", "Diabetes Symptoms", "increased thirst and fatigue"),
		indexedChunk("c2", "Influenza", "fever and cough in winter"),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}
	if err := idx.IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}

	results, err := idx.Search(context.Background(), domain.EmbeddedQuery{
		Text:   "diabetes thirst",
		Vector: []float32{0.9, 0.1, 0},
	}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected results")
	}
	if results[0].Chunk.ID != "c1" {
		t.Fatalf("expected c1 first, got %s", results[0].Chunk.ID)
	}
	for _, r := range results {
		if r.Distance < 0 {
			t.Fatalf("negative distance %f", r.Distance)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	results, err := idx.Search(context.Background(), domain.EmbeddedQuery{Vector: []float32{1, 0, 0}}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestIndexDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	err = idx.IndexChunks(context.Background(), []domain.Chunk{indexedChunk("c1", "T", "c")}, [][]float32{{1, 0}})
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	_, err = idx.Search(context.Background(), domain.EmbeddedQuery{Vector: []float32{1, 0}}, 5)
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch on search, got %v", err)
	}
}

func TestFusedScoreToDistanceMonotonic(t *testing.T) {
	higher := fusedScoreToDistance(0.05)
	lower := fusedScoreToDistance(0.02)
	if higher >= lower {
		t.Fatalf("higher score must give smaller distance: %f vs %f", higher, lower)
	}
	if fusedScoreToDistance(1) != 0 {
		t.Fatalf("score 1 must map to distance 0")
	}
}
