package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

// ChunkRepository persists source documents and chunk metadata. The vector
// index owns the embeddings; postgres is the system of record for ingestion
// state and corpus statistics.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS source_documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	source_dataset TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_source_documents_status ON source_documents(status);
CREATE INDEX IF NOT EXISTS idx_source_documents_created_at ON source_documents(created_at DESC);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES source_documents(id) ON DELETE CASCADE,
	topic_id TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source_dataset TEXT NOT NULL,
	synonyms JSONB NOT NULL DEFAULT '[]'::jsonb,
	mesh_terms JSONB NOT NULL DEFAULT '[]'::jsonb,
	search_terms JSONB NOT NULL DEFAULT '[]'::jsonb,
	medical_concepts JSONB NOT NULL DEFAULT '[]'::jsonb,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 50,
	has_structured BOOLEAN NOT NULL DEFAULT FALSE,
	brand_name TEXT,
	generic_name TEXT
);

CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_topic_id ON chunks(topic_id);
CREATE INDEX IF NOT EXISTS idx_chunks_source_dataset ON chunks(source_dataset);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CreateSourceDocument(ctx context.Context, doc *domain.SourceDocument) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO source_documents (
	id, filename, source_dataset, storage_path, status, chunk_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.Filename, string(doc.SourceDataset), doc.StoragePath,
		string(doc.Status), doc.ChunkCount, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert source document: %w", err)
	}
	return nil
}

func (r *ChunkRepository) GetSourceDocument(ctx context.Context, id string) (*domain.SourceDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, source_dataset, status, storage_path, chunk_count, error_message, created_at, updated_at
FROM source_documents
WHERE id = $1
`, id)

	var doc domain.SourceDocument
	var source, status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &source, &status, &doc.StoragePath,
		&doc.ChunkCount, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get source document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan source document: %w", err)
	}

	doc.SourceDataset = domain.ParseSourceDataset(source)
	doc.Status = domain.SourceDocumentStatus(status)
	return &doc, nil
}

func (r *ChunkRepository) UpdateSourceStatus(ctx context.Context, id string, status domain.SourceDocumentStatus, chunkCount int, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE source_documents
SET status = $2, chunk_count = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), chunkCount, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update source document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update source document status: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update source document status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Re-processing replaces the document's chunk set.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	const insert = `
INSERT INTO chunks (
	id, document_id, topic_id, title, content, source_dataset,
	synonyms, mesh_terms, search_terms, medical_concepts,
	quality_score, has_structured, brand_name, generic_name
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`
	for _, chunk := range chunks {
		synonyms, meshTerms, searchTerms, concepts, err := marshalTermSets(chunk)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, insert,
			chunk.ID, documentID, chunk.TopicID, chunk.Title, chunk.Content, string(chunk.SourceDataset),
			synonyms, meshTerms, searchTerms, concepts,
			chunk.QualityScore, chunk.HasStructured, chunk.BrandName, chunk.GenericName,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	stats := &domain.CorpusStats{
		SourceBreaks: make(map[domain.SourceDataset]int),
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT source_dataset, COUNT(*)
FROM chunks
GROUP BY source_dataset
`)
	if err != nil {
		return nil, fmt.Errorf("query chunk stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan chunk stats: %w", err)
		}
		stats.SourceBreaks[domain.ParseSourceDataset(source)] = count
		stats.TotalChunks += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk stats: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM source_documents WHERE status = $1
`, string(domain.StatusReady))
	if err := row.Scan(&stats.ReadyDocuments); err != nil {
		return nil, fmt.Errorf("scan ready documents: %w", err)
	}
	return stats, nil
}

func marshalTermSets(chunk domain.Chunk) (synonyms, meshTerms, searchTerms, concepts []byte, err error) {
	if synonyms, err = marshalSet(chunk.Synonyms); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal synonyms: %w", err)
	}
	if meshTerms, err = marshalSet(chunk.MeshTerms); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal mesh terms: %w", err)
	}
	if searchTerms, err = marshalSet(chunk.SearchTerms); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal search terms: %w", err)
	}
	if concepts, err = marshalSet(chunk.MedicalConcepts); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal medical concepts: %w", err)
	}
	return synonyms, meshTerms, searchTerms, concepts, nil
}

func marshalSet(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}
