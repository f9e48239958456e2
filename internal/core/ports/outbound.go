package ports

import (
	"context"
	"io"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// VectorIndex is the externally-owned nearest-neighbor search capability.
// Search is purely semantic; all boosting happens in the retrieval core.
type VectorIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, query domain.EmbeddedQuery, k int) ([]domain.Candidate, error)
}

// Embedder builds vectors for chunk batches and query text. Dimensionality is
// fixed per active provider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dims() int
}

// ChunkRepository persists source document state and chunk metadata.
type ChunkRepository interface {
	CreateSourceDocument(ctx context.Context, doc *domain.SourceDocument) error
	GetSourceDocument(ctx context.Context, id string) (*domain.SourceDocument, error)
	UpdateSourceStatus(ctx context.Context, id string, status domain.SourceDocumentStatus, chunkCount int, errMessage string) error
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}

// ObjectStorage stores raw corpus files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes corpus ingestion events.
type MessageQueue interface {
	PublishCorpusIngested(ctx context.Context, documentID string) error
	SubscribeCorpusIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// CorpusParser turns one raw corpus file into normalized chunks. One parser
// exists per source dataset.
type CorpusParser interface {
	Source() domain.SourceDataset
	Parse(r io.Reader) ([]domain.Chunk, error)
}
