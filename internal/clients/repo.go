package clients

import "context"

// Repo defines persistence operations for clients.
type Repo interface {
	Create(ctx context.Context, client Client) error
	GetByID(ctx context.Context, clientID string) (Client, error)
	GetMany(ctx context.Context, clientIDs []string) (map[string]Client, error)
	List(ctx context.Context, limit, offset int) ([]Client, error)
}
