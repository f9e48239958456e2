package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{MaxAttempts: 1, BreakerEnabled: false}, nil)
}

func testChunk(id string) domain.Chunk {
	return domain.Chunk{
		ID:            id,
		TopicID:       "topic-" + id,
		Title:         "Diabetes",
		Content:       "about diabetes",
		SourceDataset: domain.SourceMedlinePlus,
		Synonyms:      []string{"sugar diabetes", "dm"},
		QualityScore:  70,
	}
}

func TestIndexChunksEnsuresCollectionOnce(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks", 2, testExecutor())
	chunks := []domain.Chunk{testChunk("c1"), testChunk("c2")}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected one ensure call, got %d", got)
	}
}

func TestIndexChunksDimensionMismatch(t *testing.T) {
	client := New("http://unused", "chunks", 3, testExecutor())
	err := client.IndexChunks(context.Background(), []domain.Chunk{testChunk("c1")}, [][]float32{{0.1, 0.2}})
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchConvertsScoreToDistance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.9,"payload":{
				"chunk_id":"c1","topic_id":"t1","title":"Diabetes","content":"text",
				"source_dataset":"medline_plus","synonyms":"a|b","quality_score":70,
				"has_structured":true
			}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks", 2, testExecutor())
	results, err := client.Search(context.Background(), domain.EmbeddedQuery{Text: "q", Vector: []float32{0.1, 0.2}}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Distance < 0.0999 || r.Distance > 0.1001 {
		t.Fatalf("distance = %f, want 0.1", r.Distance)
	}
	if r.Chunk.ID != "c1" || r.Chunk.SourceDataset != domain.SourceMedlinePlus {
		t.Fatalf("chunk not rebuilt from payload: %+v", r.Chunk)
	}
	if len(r.Chunk.Synonyms) != 2 {
		t.Fatalf("synonyms not split: %v", r.Chunk.Synonyms)
	}
	if !r.Chunk.HasStructured {
		t.Fatalf("has_structured lost")
	}
}

func TestSearchUnavailableIndexError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "chunks", 2, testExecutor())
	_, err := client.Search(context.Background(), domain.EmbeddedQuery{Vector: []float32{0.1, 0.2}}, 5)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestSearchQueryDimensionMismatch(t *testing.T) {
	client := New("http://unused", "chunks", 4, testExecutor())
	_, err := client.Search(context.Background(), domain.EmbeddedQuery{Vector: []float32{0.1}}, 5)
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	in := testChunk("c9")
	in.MedicalConcepts = []string{"symptoms", "treatment"}
	in.BrandName = "Advil"

	out := payloadToChunk(chunkToPayload(in))
	if out.ID != in.ID || out.TopicID != in.TopicID || out.BrandName != "Advil" {
		t.Fatalf("payload round trip lost fields: %+v", out)
	}
	if len(out.MedicalConcepts) != 2 || out.MedicalConcepts[1] != "treatment" {
		t.Fatalf("concepts = %v", out.MedicalConcepts)
	}
}
