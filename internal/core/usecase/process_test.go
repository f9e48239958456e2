package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
)

type parserFake struct {
	source domain.SourceDataset
	chunks []domain.Chunk
	err    error
}

func (f *parserFake) Source() domain.SourceDataset { return f.source }
func (f *parserFake) Parse(io.Reader) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type batchEmbedderFake struct {
	batches [][]string
	err     error
}

func (f *batchEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}
func (f *batchEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
func (f *batchEmbedderFake) Dims() int { return 2 }

type indexWriterFake struct {
	indexed int
	err     error
}

func (f *indexWriterFake) IndexChunks(_ context.Context, chunks []domain.Chunk, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.indexed += len(chunks)
	return nil
}
func (f *indexWriterFake) Search(context.Context, domain.EmbeddedQuery, int) ([]domain.Candidate, error) {
	return nil, nil
}

func testChunks(n int) []domain.Chunk {
	out := make([]domain.Chunk, n)
	for i := range out {
		out[i] = domain.Chunk{
			ID:            string(rune('a' + i)),
			Title:         "Topic",
			Content:       "content",
			SourceDataset: domain.SourceMedlinePlus,
		}
	}
	return out
}

func processFixture(repo *repoFake, parser *parserFake, embedder *batchEmbedderFake, index *indexWriterFake, batch int) *ProcessCorpusUseCase {
	return NewProcessCorpusUseCase(repo, &storageFake{content: []byte("raw")}, []ports.CorpusParser{parser}, embedder, index, batch)
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := &repoFake{doc: &domain.SourceDocument{
		ID:            "doc-1",
		SourceDataset: domain.SourceMedlinePlus,
		StoragePath:   "doc-1_topics.xml",
	}}
	parser := &parserFake{source: domain.SourceMedlinePlus, chunks: testChunks(3)}
	embedder := &batchEmbedderFake{}
	index := &indexWriterFake{}
	uc := processFixture(repo, parser, embedder, index, 2)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	wantStatuses := []domain.SourceDocumentStatus{domain.StatusProcessing, domain.StatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != wantStatuses[0] || repo.statuses[1] != wantStatuses[1] {
		t.Fatalf("statuses = %v, want %v", repo.statuses, wantStatuses)
	}
	if repo.chunkN != 3 {
		t.Fatalf("chunk count = %d, want 3", repo.chunkN)
	}
	if len(repo.savedChunks) != 3 {
		t.Fatalf("saved chunks = %d", len(repo.savedChunks))
	}
	// Batch size 2 over 3 chunks means two embedding calls.
	if len(embedder.batches) != 2 {
		t.Fatalf("embed batches = %d, want 2", len(embedder.batches))
	}
	if index.indexed != 3 {
		t.Fatalf("indexed chunks = %d, want 3", index.indexed)
	}
}

func TestProcessByIDParserErrorMarksFailed(t *testing.T) {
	repo := &repoFake{doc: &domain.SourceDocument{
		ID:            "doc-1",
		SourceDataset: domain.SourceMedlinePlus,
		StoragePath:   "p",
	}}
	parser := &parserFake{source: domain.SourceMedlinePlus, err: errors.New("malformed xml")}
	uc := processFixture(repo, parser, &batchEmbedderFake{}, &indexWriterFake{}, 10)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %s, want failed", last)
	}
	if repo.errMsg == "" {
		t.Fatalf("error message must be recorded")
	}
}

func TestProcessByIDNoParserForSource(t *testing.T) {
	repo := &repoFake{doc: &domain.SourceDocument{
		ID:            "doc-1",
		SourceDataset: domain.SourceFDADrugs,
		StoragePath:   "p",
	}}
	parser := &parserFake{source: domain.SourceMedlinePlus}
	uc := processFixture(repo, parser, &batchEmbedderFake{}, &indexWriterFake{}, 10)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessByIDEmbedErrorMarksFailed(t *testing.T) {
	repo := &repoFake{doc: &domain.SourceDocument{
		ID:            "doc-1",
		SourceDataset: domain.SourceMedlinePlus,
		StoragePath:   "p",
	}}
	parser := &parserFake{source: domain.SourceMedlinePlus, chunks: testChunks(1)}
	uc := processFixture(repo, parser, &batchEmbedderFake{err: errors.New("provider down")}, &indexWriterFake{}, 10)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %s, want failed", last)
	}
}

func TestProcessByIDZeroChunksRejected(t *testing.T) {
	repo := &repoFake{doc: &domain.SourceDocument{
		ID:            "doc-1",
		SourceDataset: domain.SourceMedlinePlus,
		StoragePath:   "p",
	}}
	parser := &parserFake{source: domain.SourceMedlinePlus, chunks: nil}
	uc := processFixture(repo, parser, &batchEmbedderFake{}, &indexWriterFake{}, 10)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
