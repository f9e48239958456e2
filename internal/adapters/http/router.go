package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/healthquery/medical-rag/internal/core/domain"
	"github.com/healthquery/medical-rag/internal/core/ports"
	"github.com/healthquery/medical-rag/internal/observability/metrics"
)

type Router struct {
	service   string
	retriever ports.KnowledgeRetriever
	ingestUC  ports.CorpusIngestor
	readerUC  ports.CorpusReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	service string,
	retriever ports.KnowledgeRetriever,
	ingestUC ports.CorpusIngestor,
	readerUC ports.CorpusReader,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		service:   service,
		retriever: retriever,
		ingestUC:  ingestUC,
		readerUC:  readerUC,
		metrics:   m,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/corpus", rt.uploadCorpus)
	mux.HandleFunc("/v1/corpus/stats", rt.corpusStats)
	mux.HandleFunc("/v1/corpus/", rt.getCorpusDocument)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrieveRequest struct {
	Query       string `json:"query"`
	NResults    int    `json:"n_results"`
	ContextType string `json:"context_type"`
}

type retrieveResponse struct {
	Results []domain.Candidate      `json:"results"`
	Intent  domain.Intent           `json:"intent"`
	Metrics domain.RetrievalMetrics `json:"metrics"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	results, err := rt.retriever.Retrieve(r.Context(), req.Query, ports.RetrieveOptions{
		NResults:    req.NResults,
		ContextType: req.ContextType,
	})
	if err != nil {
		rt.logger.Error("retrieval failed",
			"request_id", requestIDFromContext(r.Context()),
			"query", req.Query,
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	intent := rt.retriever.Intent(req.Query)
	report := rt.retriever.Metrics(req.Query, results)
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.service, intent, report, time.Since(start))
	}

	writeJSON(w, http.StatusOK, retrieveResponse{
		Results: results,
		Intent:  intent,
		Metrics: report,
	})
}

func (rt *Router) uploadCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	source := domain.ParseSourceDataset(r.FormValue("source_dataset"))

	doc, err := rt.ingestUC.Upload(r.Context(), fileHeader.Filename, source, file)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, string(doc.SourceDataset))
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) corpusStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := rt.readerUC.Stats(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) getCorpusDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/corpus/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.readerUC.GetSourceDocument(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
