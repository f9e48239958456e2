package ports

import (
	"context"
	"io"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// RetrieveOptions carries the caller's optional overrides for one retrieval.
type RetrieveOptions struct {
	// NResults overrides the complexity-based target result count when > 0.
	NResults int
	// ContextType is an optional caller hint (e.g. "chat", "report"); it is
	// recorded for observability and reserved for future policy use.
	ContextType string
}

// KnowledgeRetriever is the inbound contract for the retrieval core.
// Both calls are synchronous; Retrieve awaits at most one embedding call and
// one (or, on fallback, two) index calls internally.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]domain.Candidate, error)
	Metrics(query string, results []domain.Candidate) domain.RetrievalMetrics
	Intent(query string) domain.Intent
}

// CorpusIngestor registers an uploaded corpus file and queues it for
// processing.
type CorpusIngestor interface {
	Upload(ctx context.Context, filename string, source domain.SourceDataset, body io.Reader) (*domain.SourceDocument, error)
}

// CorpusProcessor is the inbound contract for asynchronous corpus processing.
type CorpusProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// CorpusReader exposes ingestion state and corpus statistics.
type CorpusReader interface {
	GetSourceDocument(ctx context.Context, id string) (*domain.SourceDocument, error)
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}
