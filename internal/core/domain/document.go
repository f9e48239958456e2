package domain

import "time"

// SourceDocumentStatus tracks a corpus file through the ingestion pipeline.
type SourceDocumentStatus string

const (
	StatusUploaded   SourceDocumentStatus = "uploaded"
	StatusProcessing SourceDocumentStatus = "processing"
	StatusReady      SourceDocumentStatus = "ready"
	StatusFailed     SourceDocumentStatus = "failed"
)

// SourceDocument is one raw corpus file (a MedlinePlus topic export, a
// Medical Meadow dump, an openFDA label file) registered for ingestion.
type SourceDocument struct {
	ID            string               `json:"id"`
	Filename      string               `json:"filename"`
	SourceDataset SourceDataset        `json:"source_dataset"`
	StoragePath   string               `json:"storage_path"`
	Status        SourceDocumentStatus `json:"status"`
	ChunkCount    int                  `json:"chunk_count"`
	Error         string               `json:"error,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// CorpusStats summarizes the indexed corpus for observability.
type CorpusStats struct {
	TotalChunks    int                   `json:"total_chunks"`
	SourceBreaks   map[SourceDataset]int `json:"source_distribution"`
	ReadyDocuments int                   `json:"ready_documents"`
}
