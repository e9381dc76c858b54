package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	GetMany(ctx context.Context, documentIDs []string) (map[string]Document, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Document, error)
}
