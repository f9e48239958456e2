package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
)

type IngestCorpusUseCase struct {
	repo    ports.ChunkRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestCorpusUseCase(
	repo ports.ChunkRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestCorpusUseCase {
	return &IngestCorpusUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores a raw corpus file, registers it and queues it for the worker.
func (uc *IngestCorpusUseCase) Upload(
	ctx context.Context,
	filename string,
	source domain.SourceDataset,
	body io.Reader,
) (*domain.SourceDocument, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.SourceDocument{
		ID:            id,
		Filename:      filename,
		SourceDataset: domain.ParseSourceDataset(string(source)),
		StoragePath:   storageKey,
		Status:        domain.StatusUploaded,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.repo.CreateSourceDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create source document: %w", err)
	}

	if err := uc.queue.PublishCorpusIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "corpus.bin"
	}
	return base
}
