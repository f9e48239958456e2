package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/healthquery/medical-rag/internal/config"
	"github.com/healthquery/medical-rag/internal/core/ports"
	"github.com/healthquery/medical-rag/internal/core/usecase"
	"github.com/healthquery/medical-rag/internal/infrastructure/corpus"
	"github.com/healthquery/medical-rag/internal/infrastructure/embedding/ollama"
	"github.com/healthquery/medical-rag/internal/infrastructure/embedding/openai"
	"github.com/healthquery/medical-rag/internal/infrastructure/queue/nats"
	"github.com/healthquery/medical-rag/internal/infrastructure/repository/postgres"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
	"github.com/healthquery/medical-rag/internal/infrastructure/storage/localfs"
	"github.com/healthquery/medical-rag/internal/infrastructure/vector/comet"
	"github.com/healthquery/medical-rag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.ChunkRepository
	Retriever *usecase.Retriever
	IngestUC  ports.CorpusIngestor
	ProcessUC ports.CorpusProcessor
	ReaderUC  ports.CorpusReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	exec := resilience.NewExecutor(resilience.Default(), logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewChunkRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Executor: exec,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder, err := newEmbedder(cfg, exec)
	if err != nil {
		return nil, err
	}
	index, err := newVectorIndex(cfg, exec)
	if err != nil {
		return nil, err
	}

	weights := usecase.DefaultWeights()
	if cfg.WeightsFile != "" {
		weights, err = usecase.LoadWeights(cfg.WeightsFile)
		if err != nil {
			return nil, fmt.Errorf("load retrieval weights: %w", err)
		}
	}

	parsers := []ports.CorpusParser{
		corpus.NewMedlinePlusParser(),
		corpus.NewMeadowParser(),
		corpus.NewFDADrugsParser(),
	}

	retriever := usecase.NewRetriever(usecase.DefaultIntentRules(), weights, embedder, index, logger)
	ingestUC := usecase.NewIngestCorpusUseCase(repo, storage, queue)
	processUC := usecase.NewProcessCorpusUseCase(repo, storage, parsers, embedder, index, cfg.ProcessBatchSize)
	readerUC := usecase.NewCorpusReadUseCase(repo)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		Retriever: retriever,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReaderUC:  readerUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newEmbedder(cfg config.Config, exec *resilience.Executor) (ports.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return openai.New(openai.Config{
			BaseURL:           cfg.OpenAIBaseURL,
			APIKey:            cfg.OpenAIAPIKey,
			Model:             cfg.OpenAIModel,
			Dims:              cfg.EmbeddingDims,
			RequestsPerSecond: float64(cfg.OpenAIRPS),
			Burst:             cfg.OpenAIBurst,
		}, exec), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, cfg.EmbeddingDims, exec), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newVectorIndex(cfg config.Config, exec *resilience.Executor) (ports.VectorIndex, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDims, exec), nil
	case "comet":
		index, err := comet.New(cfg.EmbeddingDims)
		if err != nil {
			return nil, fmt.Errorf("init embedded vector index: %w", err)
		}
		return index, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
