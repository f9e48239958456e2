package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetSourceDocumentNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, source_dataset").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSourceDocument(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSourceDocumentScansRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "source_dataset", "status", "storage_path",
		"chunk_count", "error_message", "created_at", "updated_at",
	}).AddRow("doc-1", "topics.xml", "medline_plus", "ready", "doc-1_topics.xml", 42, "", now, now)

	mock.ExpectQuery("SELECT id, filename, source_dataset").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetSourceDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetSourceDocument() error = %v", err)
	}
	if doc.SourceDataset != domain.SourceMedlinePlus {
		t.Fatalf("source = %s", doc.SourceDataset)
	}
	if doc.Status != domain.StatusReady || doc.ChunkCount != 42 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateSourceStatusNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE source_documents").
		WithArgs("missing", string(domain.StatusProcessing), 0, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSourceStatus(context.Background(), "missing", domain.StatusProcessing, 0, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveChunksReplacesExisting(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO chunks").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	chunk := domain.Chunk{
		ID:            "c1",
		TopicID:       "t1",
		Title:         "Diabetes",
		Content:       "text",
		SourceDataset: domain.SourceMedlinePlus,
		Synonyms:      []string{"dm"},
		QualityScore:  70,
	}
	if err := repo.SaveChunks(context.Background(), "doc-1", []domain.Chunk{chunk}); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveChunksEmptyIsNoop(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	if err := repo.SaveChunks(context.Background(), "doc-1", nil); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatsAggregatesSources(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT source_dataset, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"source_dataset", "count"}).
			AddRow("medline_plus", 120).
			AddRow("fda_drugs", 30))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM source_documents").
		WithArgs(string(domain.StatusReady)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalChunks != 150 {
		t.Fatalf("TotalChunks = %d", stats.TotalChunks)
	}
	if stats.SourceBreaks[domain.SourceMedlinePlus] != 120 {
		t.Fatalf("source breakdown = %v", stats.SourceBreaks)
	}
	if stats.ReadyDocuments != 3 {
		t.Fatalf("ReadyDocuments = %d", stats.ReadyDocuments)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
