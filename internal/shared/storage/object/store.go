package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving document files.
// Objects are grouped under a namespace, typically the owning client.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
