package usecase

import (
	"context"
	"log/slog"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
)

// Retriever is the retrieval/ranking core: intent classification, hybrid
// scoring, strict relevance filtering, diversification and quality trimming
// over candidates from the external vector index.
//
// Requests are independent; the only shared state is the immutable rule and
// weight tables, so Retrieve is safe to call concurrently without locks.
type Retriever struct {
	rules    *IntentRules
	weights  Weights
	embedder ports.Embedder
	index    ports.VectorIndex
	logger   *slog.Logger

	// onFallback, when set, is invoked once per retrieval that degrades to
	// the fallback search.
	onFallback func()
}

func NewRetriever(
	rules *IntentRules,
	weights Weights,
	embedder ports.Embedder,
	index ports.VectorIndex,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		rules:    rules,
		weights:  weights.normalize(),
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Retrieve runs the full pipeline for one query and returns the ordered
// result list. Embedding failure is fatal for the request and surfaces as
// ErrEmbeddingUnavailable; index failure degrades to the simplified fallback
// search and never propagates a transport error to the caller.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ports.RetrieveOptions) ([]domain.Candidate, error) {
	intent := ClassifyIntent(r.rules, query)

	target := opts.NResults
	if target <= 0 {
		target = r.weights.TargetResultCount(intent)
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed query", err)
	}

	// All in-process scoring is cheap; cancellation is honored at the two
	// suspension boundaries only.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedded := domain.EmbeddedQuery{Text: query, Vector: vector}
	candidates, err := r.index.Search(ctx, embedded, r.weights.CandidateCount(target))
	if err != nil {
		r.logger.Warn("hybrid search failed, using fallback",
			"query", query,
			"error", err,
		)
		if r.onFallback != nil {
			r.onFallback()
		}
		return r.fallbackSearch(ctx, embedded, target)
	}
	if len(candidates) == 0 {
		r.logger.Warn("no candidates from vector index", "query", query)
		return []domain.Candidate{}, nil
	}

	scored := scoreCandidates(candidates, intent, query, r.weights)
	filtered := filterByRelevance(scored, query, r.weights)
	diversified := enforceDiversity(filtered, r.weights)
	final := applyQualityThreshold(diversified, target, r.weights)

	if len(final) > target {
		final = final[:target]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("retrieval complete",
		"query", query,
		"primary_concept", string(intent.PrimaryConcept),
		"complexity", string(intent.Complexity),
		"candidates", len(candidates),
		"filtered", len(filtered),
		"results", len(final),
	)
	return final, nil
}

// fallbackSearch is the simplified single-pass path used when the boosted
// search cannot be served: plain nearest-neighbor order, raw similarity as
// the combined score, no boosting. A second failure yields an empty list,
// never a transport error.
func (r *Retriever) fallbackSearch(ctx context.Context, query domain.EmbeddedQuery, target int) ([]domain.Candidate, error) {
	candidates, err := r.index.Search(ctx, query, target)
	if err != nil {
		r.logger.Error("fallback search failed", "query", query.Text, "error", err)
		return []domain.Candidate{}, nil
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Chunk.Normalize()
		c.RawScore = rawScore(c.Distance)
		c.CombinedScore = c.RawScore
		out = append(out, c)
	}
	if len(out) > target {
		out = out[:target]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics computes retrieval-quality diagnostics over a final result list.
func (r *Retriever) Metrics(query string, results []domain.Candidate) domain.RetrievalMetrics {
	return reportMetrics(query, results)
}

// Intent exposes the classified intent for observability labels.
func (r *Retriever) Intent(query string) domain.Intent {
	return ClassifyIntent(r.rules, query)
}

// SetFallbackObserver registers a callback fired when a retrieval degrades
// to the fallback search. Must be called before the retriever serves
// requests.
func (r *Retriever) SetFallbackObserver(fn func()) {
	r.onFallback = fn
}
