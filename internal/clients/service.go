package clients

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for clients.
type Service struct {
	Repo Repo
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, name, email string) (Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return Client{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Client{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
		}
	}

	client := Client{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, client); err != nil {
		return Client{}, err
	}
	return client, nil
}

// Get returns a client by ID.
func (s *Service) Get(ctx context.Context, clientID string) (Client, error) {
	if strings.TrimSpace(clientID) == "" {
		return Client{}, fmt.Errorf("%w: client id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, clientID)
}

// List returns clients ordered by name.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Client, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Names resolves display names for the given client IDs. Unknown IDs are omitted.
func (s *Service) Names(ctx context.Context, clientIDs []string) (map[string]string, error) {
	found, err := s.Repo.GetMany(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(found))
	for id, client := range found {
		out[id] = client.Name
	}
	return out, nil
}
