package usecase

import (
	"context"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
)

// CorpusReadUseCase answers ingestion-status and corpus-statistics queries.
type CorpusReadUseCase struct {
	repo ports.ChunkRepository
}

func NewCorpusReadUseCase(repo ports.ChunkRepository) *CorpusReadUseCase {
	return &CorpusReadUseCase{repo: repo}
}

func (uc *CorpusReadUseCase) GetSourceDocument(ctx context.Context, id string) (*domain.SourceDocument, error) {
	return uc.repo.GetSourceDocument(ctx, id)
}

func (uc *CorpusReadUseCase) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	return uc.repo.Stats(ctx)
}
