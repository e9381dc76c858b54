package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

var documentRowColumns = []string{"id", "client_id", "name", "category", "file_name", "mime_type", "size_bytes", "storage_provider", "storage_key", "created_at"}

func TestPGRepoCreateDefaultsProvider(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("d-1", nil, "MSA", "contract", "msa.pdf", "application/pdf", int64(2048), "local", "ns/msa.pdf", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), Document{
		ID:         "d-1",
		Name:       "MSA",
		Category:   CategoryContract,
		FileName:   "msa.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  2048,
		StorageKey: "ns/msa.pdf",
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM documents").
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("d-1", "c-1", "MSA", "contract", "msa.pdf", nil, int64(2048), "s3", "k", created))

	doc, err := repo.GetByID(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.ClientID != "c-1" || doc.Category != CategoryContract || doc.MimeType != "" || doc.StorageProvider != "s3" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	mock.ExpectQuery("FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByClientClampsPaging(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("WHERE \\(\\$1 = '' OR client_id = \\$1\\)").
		WithArgs("c-1", 100, 0).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	docs, err := repo.ListByClient(context.Background(), "c-1", 500, -3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
