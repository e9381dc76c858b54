package audit

import "context"

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Store persists and lists audit entries.
type Store interface {
	Recorder
	ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]Entry, error)
}
