package contracts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Contract // documentID -> contract
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Contract),
	}
}

// Insert stores a new contract. A document holds at most one contract.
func (r *MemoryRepo) Insert(ctx context.Context, c Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.DocumentID]; ok {
		return ErrAlreadyExists
	}
	r.data[c.DocumentID] = clone(c)
	return nil
}

// Update overwrites the non-status fields of an existing contract.
func (r *MemoryRepo) Update(ctx context.Context, c Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[c.DocumentID]
	if !ok {
		return ErrNotFound
	}
	next := clone(c)
	next.ID = existing.ID
	next.Status = existing.Status
	next.SignedDate = existing.SignedDate
	next.CreatedAt = existing.CreatedAt
	r.data[c.DocumentID] = next
	return nil
}

// UpdateStatus performs a compare-and-set on the status field.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID string, from, to Status, signedDate *time.Time, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	if c.Status != from {
		return ErrStatusConflict
	}
	c.Status = to
	if signedDate != nil {
		d := *signedDate
		c.SignedDate = &d
	}
	c.UpdatedAt = updatedAt
	r.data[documentID] = c
	return nil
}

// SelectOne returns the contract for a document.
func (r *MemoryRepo) SelectOne(ctx context.Context, documentID string) (Contract, error) {
	if err := ctx.Err(); err != nil {
		return Contract{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[documentID]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return clone(c), nil
}

// SelectMany returns contracts matching filter, newest-updated first.
func (r *MemoryRepo) SelectMany(ctx context.Context, filter Filter) ([]Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Contract, 0, len(r.data))
	for _, c := range r.data {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, clone(c))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func clone(c Contract) Contract {
	out := c
	out.StartDate = copyTime(c.StartDate)
	out.EndDate = copyTime(c.EndDate)
	out.SignedDate = copyTime(c.SignedDate)
	if c.ContractValue != nil {
		v := *c.ContractValue
		out.ContractValue = &v
	}
	if c.RenewalPeriodMonths != nil {
		v := *c.RenewalPeriodMonths
		out.RenewalPeriodMonths = &v
	}
	out.Parties = append([]Party{}, c.Parties...)
	out.RelatedDocumentIDs = append([]string{}, c.RelatedDocumentIDs...)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var _ Repo = (*MemoryRepo)(nil)
