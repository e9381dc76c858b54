package clients

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Client
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Client)}
}

// Create stores a client.
func (r *MemoryRepo) Create(ctx context.Context, client Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[client.ID] = client
	return nil
}

// GetByID returns a client by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, clientID string) (Client, error) {
	if err := ctx.Err(); err != nil {
		return Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.data[clientID]
	if !ok {
		return Client{}, ErrNotFound
	}
	return client, nil
}

// GetMany returns the clients found among clientIDs, keyed by ID.
func (r *MemoryRepo) GetMany(ctx context.Context, clientIDs []string) (map[string]Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Client, len(clientIDs))
	for _, id := range clientIDs {
		if client, ok := r.data[id]; ok {
			out[id] = client
		}
	}
	return out, nil
}

// List returns clients ordered by name, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	all := make([]Client, 0, len(r.data))
	for _, client := range r.data {
		all = append(all, client)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name)
		if a == b {
			return all[i].ID < all[j].ID
		}
		return a < b
	})

	if offset >= len(all) {
		return []Client{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
