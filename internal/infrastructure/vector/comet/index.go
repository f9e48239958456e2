package comet

import (
	"context"
	"fmt"
	"sync"

	cometlib "github.com/wizenheimer/comet"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// Index is an in-process hybrid index backed by the comet library: a flat
// cosine vector index fused with BM25 over the chunk text. It serves small
// and single-node deployments where running qdrant is not worth it.
type Index struct {
	dims int

	mu     sync.RWMutex
	chunks map[uint32]domain.Chunk
	nextID uint32
	flat   *cometlib.FlatIndex
	text   *cometlib.BM25SearchIndex
	hybrid cometlib.HybridSearchIndex
}

func New(dims int) (*Index, error) {
	flat, err := cometlib.NewFlatIndex(dims, cometlib.Cosine)
	if err != nil {
		return nil, fmt.Errorf("comet flat index: %w", err)
	}
	text := cometlib.NewBM25SearchIndex()
	meta := cometlib.NewRoaringMetadataIndex()

	return &Index{
		dims:   dims,
		chunks: make(map[uint32]domain.Chunk),
		flat:   flat,
		text:   text,
		hybrid: cometlib.NewHybridSearchIndex(flat, text, meta),
	}, nil
}

func (x *Index) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, chunk := range chunks {
		if len(vectors[i]) != x.dims {
			return domain.WrapError(
				domain.ErrDimensionMismatch,
				"index chunks",
				fmt.Errorf("got %d dims, index expects %d", len(vectors[i]), x.dims),
			)
		}

		id := x.nextID
		x.nextID++

		node := cometlib.NewVectorNodeWithID(id, vectors[i])
		if err := x.flat.Add(*node); err != nil {
			return domain.WrapError(domain.ErrIndexUnavailable, "index chunks", err)
		}
		if err := x.text.Add(id, chunk.Title+" "+chunk.Content); err != nil {
			return domain.WrapError(domain.ErrIndexUnavailable, "index chunks", err)
		}
		x.chunks[id] = chunk
	}
	return nil
}

func (x *Index) Search(ctx context.Context, query domain.EmbeddedQuery, k int) ([]domain.Candidate, error) {
	if len(query.Vector) != x.dims {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"search",
			fmt.Errorf("got %d dims, index expects %d", len(query.Vector), x.dims),
		)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.chunks) == 0 {
		return nil, nil
	}

	results, err := x.hybrid.NewSearch().
		WithVector(query.Vector).
		WithText(query.Text).
		WithK(k).
		WithFusionKind(cometlib.ReciprocalRankFusion).
		Execute()
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "search", err)
	}

	out := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		chunk, ok := x.chunks[r.ID]
		if !ok {
			continue
		}
		out = append(out, domain.Candidate{
			Chunk:    chunk,
			Distance: fusedScoreToDistance(r.Score),
		})
	}
	return out, nil
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// fusedScoreToDistance inverts the similarity transform the scorer applies,
// so 1/(1+distance) recovers the fused score and rank order survives.
func fusedScoreToDistance(score float64) float64 {
	if score <= 0 {
		return 1e9
	}
	if score >= 1 {
		return 0
	}
	return (1.0 - score) / score
}
