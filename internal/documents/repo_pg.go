package documents

import (
	"context"
	"database/sql"
	"errors"
)

const documentColumns = `id, client_id, name, category, file_name, mime_type, size_bytes, storage_provider, storage_key, created_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (Document, error) {
	var doc Document
	var clientID sql.NullString
	var category string
	var mimeType sql.NullString
	var storageProvider sql.NullString
	var storageKey sql.NullString
	if err := s.Scan(
		&doc.ID,
		&clientID,
		&doc.Name,
		&category,
		&doc.FileName,
		&mimeType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Category = Category(category)
	if clientID.Valid {
		doc.ClientID = clientID.String
	}
	if mimeType.Valid {
		doc.MimeType = mimeType.String
	}
	if storageProvider.Valid {
		doc.StorageProvider = storageProvider.String
	}
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	return doc, nil
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    client_id,
    name,
    category,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	var clientID sql.NullString
	if doc.ClientID != "" {
		clientID = sql.NullString{String: doc.ClientID, Valid: true}
	}
	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		clientID,
		doc.Name,
		string(doc.Category),
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		storageKey,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// GetMany fetches the documents found among documentIDs, keyed by ID.
func (r *PGRepo) GetMany(ctx context.Context, documentIDs []string) (map[string]Document, error) {
	out := make(map[string]Document, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, rows.Err()
}

// ListByClient lists documents ordered newest-first. An empty clientID lists
// every document.
func (r *PGRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE ($1 = '' OR client_id = $1)
ORDER BY created_at DESC, id ASC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
