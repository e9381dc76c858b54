package contracts

import (
	"context"
	"time"
)

// Repo defines persistence operations for contracts.
type Repo interface {
	Insert(ctx context.Context, c Contract) error
	// Update replaces every non-status field of the stored row.
	Update(ctx context.Context, c Contract) error
	// UpdateStatus writes to only while the stored status still equals from.
	// It returns ErrStatusConflict when the row moved on, ErrNotFound when absent.
	UpdateStatus(ctx context.Context, documentID string, from, to Status, signedDate *time.Time, updatedAt time.Time) error
	SelectOne(ctx context.Context, documentID string) (Contract, error)
	SelectMany(ctx context.Context, filter Filter) ([]Contract, error)
}
