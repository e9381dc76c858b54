package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"contracts-backend/internal/clients"
	"contracts-backend/internal/contracts"
	"contracts-backend/internal/shared/storage/object"
	"contracts-backend/internal/shared/telemetry"
)

// ClientLookup resolves the owning client of an upload.
type ClientLookup interface {
	Get(ctx context.Context, clientID string) (clients.Client, error)
}

// ContractInitializer opens the workflow record for a contract document.
type ContractInitializer interface {
	Create(ctx context.Context, actorID, documentID string, in contracts.ContractInput) (contracts.Contract, error)
}

// Service contains business logic for documents.
type Service struct {
	Store           object.ObjectStore
	Repo            Repo
	StorageProvider string
	Clients         ClientLookup
	Contracts       ContractInitializer
}

// Upload saves the file to object storage and records the document. Documents
// in the contract category also get a draft contract.
func (s *Service) Upload(ctx context.Context, actorID string, in UploadInput, r io.Reader) (Document, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.Name = strings.TrimSpace(in.Name)
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.FileName == "" {
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if in.Name == "" {
		in.Name = in.FileName
	}
	if in.Category == "" {
		in.Category = CategoryOther
	}
	in.Category = Category(strings.ToLower(string(in.Category)))
	if !in.Category.Valid() {
		return Document{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.ClientID != "" && s.Clients != nil {
		if _, err := s.Clients.Get(ctx, in.ClientID); err != nil {
			return Document{}, fmt.Errorf("%w: client %s: %v", ErrInvalidInput, in.ClientID, err)
		}
	}

	namespace := in.ClientID
	if namespace == "" {
		namespace = "unassigned"
	}
	storageKey, size, mimeType, err := s.Store.Save(ctx, namespace, in.FileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:              uuid.NewString(),
		ClientID:        in.ClientID,
		Name:            in.Name,
		Category:        in.Category,
		FileName:        in.FileName,
		MimeType:        mimeType,
		SizeBytes:       size,
		StorageProvider: s.StorageProvider,
		StorageKey:      storageKey,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if doc.Category == CategoryContract && s.Contracts != nil {
		if _, err := s.Contracts.Create(ctx, actorID, doc.ID, contracts.ContractInput{Status: contracts.StatusDraft}); err != nil {
			telemetry.Error("documents.contract_init_failed", map[string]any{
				"documentId": doc.ID,
				"error":      err.Error(),
			})
			return doc, fmt.Errorf("initialize contract for document %s: %w", doc.ID, err)
		}
	}

	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return Document{}, fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents newest first, optionally restricted to one client.
func (s *Service) List(ctx context.Context, clientID string, limit, offset int) ([]Document, error) {
	return s.Repo.ListByClient(ctx, strings.TrimSpace(clientID), limit, offset)
}

// Open streams the stored file of a document. The caller closes the reader.
func (s *Service) Open(ctx context.Context, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.StorageKey == "" {
		return Document{}, nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}
