package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
)

// ProcessCorpusUseCase turns one registered corpus file into indexed chunks:
// parse per source dataset, persist chunk metadata, embed in batches, index.
type ProcessCorpusUseCase struct {
	repo      ports.ChunkRepository
	storage   ports.ObjectStorage
	parsers   map[domain.SourceDataset]ports.CorpusParser
	embedder  ports.Embedder
	index     ports.VectorIndex
	batchSize int
}

func NewProcessCorpusUseCase(
	repo ports.ChunkRepository,
	storage ports.ObjectStorage,
	parsers []ports.CorpusParser,
	embedder ports.Embedder,
	index ports.VectorIndex,
	batchSize int,
) *ProcessCorpusUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	bysource := make(map[domain.SourceDataset]ports.CorpusParser, len(parsers))
	for _, p := range parsers {
		bysource[p.Source()] = p
	}
	return &ProcessCorpusUseCase{
		repo:      repo,
		storage:   storage,
		parsers:   bysource,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
	}
}

func (uc *ProcessCorpusUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateSourceStatus(ctx, documentID, domain.StatusProcessing, 0, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateSourceStatus(ctx, documentID, domain.StatusFailed, 0, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateSourceStatus(ctx, documentID, domain.StatusReady, chunkCount, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessCorpusUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetSourceDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch source document: %w", err)
	}

	chunks, err := uc.parse(ctx, doc)
	if err != nil {
		return 0, err
	}

	if err := uc.repo.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("save chunk metadata: %w", err)
	}

	if err := uc.embedAndIndex(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (uc *ProcessCorpusUseCase) parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Chunk, error) {
	parser, ok := uc.parsers[doc.SourceDataset]
	if !ok {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"select corpus parser",
			fmt.Errorf("no parser for source dataset %q", doc.SourceDataset),
		)
	}

	raw, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer raw.Close()

	chunks, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s corpus: %w", doc.SourceDataset, err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse corpus", errors.New("parsing produced zero chunks"))
	}

	for i := range chunks {
		chunks[i].Normalize()
	}
	return chunks, nil
}

func (uc *ProcessCorpusUseCase) embedAndIndex(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed chunk batch", err)
		}
		if len(vectors) != len(batch) {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"embed chunk batch",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)),
			)
		}

		if err := uc.index.IndexChunks(ctx, batch, vectors); err != nil {
			return fmt.Errorf("index chunk batch: %w", err)
		}
	}
	return nil
}
