package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

// Embedder produces vectors from a local Ollama instance via /api/embed.
type Embedder struct {
	baseURL    string
	model      string
	dims       int
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, model string, dims int, exec *resilience.Executor) *Embedder {
	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dims:       dims,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

func (e *Embedder) Dims() int { return e.dims }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.exec.Do(ctx, "ollama.embed", classifyTransportError, func(ctx context.Context) error {
		return e.postJSON(ctx, "/api/embed", request, &response)
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(response.Embeddings), len(texts))
	}
	for _, v := range response.Embeddings {
		if len(v) != e.dims {
			return nil, domain.WrapError(
				domain.ErrDimensionMismatch,
				"embed",
				fmt.Errorf("got %d dims, expected %d", len(v), e.dims),
			)
		}
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (e *Embedder) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "embed",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}
