package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

// Client is the qdrant-backed vector index. Cosine similarity scores from
// qdrant are converted to distances (1 - score) so the retrieval core only
// ever reasons about distances.
type Client struct {
	baseURL    string
	collection string
	dims       int
	httpClient *http.Client
	exec       *resilience.Executor

	ensureMu sync.Mutex
	ensured  bool
}

func New(baseURL, collection string, dims int, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dims:       dims,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != c.dims {
			return domain.WrapError(
				domain.ErrDimensionMismatch,
				"index chunks",
				fmt.Errorf("got %d dims, collection expects %d", len(v), c.dims),
			)
		}
	}

	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			// Deterministic point ID makes re-ingestion an upsert.
			ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunk.ID)).String(),
			Vector:  vectors[i],
			Payload: chunkToPayload(chunk),
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	err := c.exec.Do(ctx, "qdrant.upsert", classifyQdrantError, func(ctx context.Context) error {
		return c.send(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert")
	})
	if err != nil {
		return domain.WrapError(domain.ErrIndexUnavailable, "index chunks", err)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query domain.EmbeddedQuery, k int) ([]domain.Candidate, error) {
	if len(query.Vector) != c.dims {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"search",
			fmt.Errorf("got %d dims, collection expects %d", len(query.Vector), c.dims),
		)
	}

	reqBody := map[string]any{
		"vector":       query.Vector,
		"limit":        k,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	err := c.exec.Do(ctx, "qdrant.search", classifyQdrantError, func(ctx context.Context) error {
		return c.send(ctx, http.MethodPost, url, reqBody, &searchResp, "search")
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "search", err)
	}

	out := make([]domain.Candidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		distance := 1.0 - r.Score
		if distance < 0 {
			distance = 0
		}
		out = append(out, domain.Candidate{
			Chunk:    payloadToChunk(r.Payload),
			Distance: distance,
		})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	ensured := c.ensured
	c.ensureMu.Unlock()
	if ensured {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.dims,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.send(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")
	if err != nil {
		var statusErr *statusError
		// 409 means the collection already exists.
		if asStatusError(err, &statusErr) && statusErr.Code == http.StatusConflict {
			err = nil
		}
	}
	if err != nil {
		return domain.WrapError(domain.ErrIndexUnavailable, "ensure collection", err)
	}

	c.ensureMu.Lock()
	c.ensured = true
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			Operation: operation,
			Code:      resp.StatusCode,
			Status:    resp.Status,
			Body:      strings.TrimSpace(string(raw)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}
