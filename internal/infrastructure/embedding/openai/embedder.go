package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/infrastructure/resilience"
)

// Embedder calls an OpenAI-compatible /v1/embeddings endpoint. Works against
// api.openai.com and self-hosted gateways exposing the same contract.
type Embedder struct {
	baseURL    string
	apiKey     string
	model      string
	dims       int
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *resilience.Executor
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Dims    int
	// RequestsPerSecond caps outbound calls; provider quotas are easy to
	// blow through during bulk corpus indexing.
	RequestsPerSecond float64
	Burst             int
}

func New(cfg Config, exec *resilience.Executor) *Embedder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Embedder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dims:       cfg.Dims,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		exec:       exec,
	}
}

func (e *Embedder) Dims() int { return e.dims }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var response embeddingsResponse
	err := e.exec.Do(ctx, "openai.embeddings", classifyAPIError, func(ctx context.Context) error {
		return e.post(ctx, embeddingsRequest{Model: e.model, Input: texts}, &response)
	})
	if err != nil {
		return nil, wrapTemporary("embeddings", err)
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(response.Data), len(texts))
	}

	// The API may return items out of order; index is authoritative.
	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})

	out := make([][]float32, len(response.Data))
	for i, item := range response.Data {
		if len(item.Embedding) != e.dims {
			return nil, domain.WrapError(
				domain.ErrDimensionMismatch,
				"embeddings",
				fmt.Errorf("got %d dims, expected %d", len(item.Embedding), e.dims),
			)
		}
		out[i] = item.Embedding
	}
	return out, nil
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

func (e *Embedder) post(ctx context.Context, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embeddings response: %w", err)
	}
	return nil
}

type APIStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIStatusError) Error() string {
	if e == nil {
		return "openai status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("openai embeddings status: %s", e.Status)
	}
	return fmt.Sprintf("openai embeddings status: %s: %s", e.Status, e.Body)
}

func classifyAPIError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, CountsAgainst: false}
	}

	var statusErr *APIStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return resilience.Outcome{Retryable: true, CountsAgainst: true}
		default:
			// 4xx other than throttling is a caller bug, not provider health.
			return resilience.Outcome{Retryable: false, CountsAgainst: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retryable: true, CountsAgainst: true}
	}
	return resilience.Outcome{Retryable: false, CountsAgainst: true}
}

func wrapTemporary(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyAPIError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
