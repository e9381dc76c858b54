package documents

import "time"

// Category classifies an uploaded document.
type Category string

const (
	CategoryContract       Category = "contract"
	CategoryInvoice        Category = "invoice"
	CategoryCorrespondence Category = "correspondence"
	CategoryOther          Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryContract, CategoryInvoice, CategoryCorrespondence, CategoryOther:
		return true
	}
	return false
}

// Document represents an uploaded file belonging to a client.
type Document struct {
	ID              string
	ClientID        string
	Name            string
	Category        Category
	FileName        string
	MimeType        string
	SizeBytes       int64
	StorageProvider string
	StorageKey      string
	CreatedAt       time.Time
}

// UploadInput carries the metadata accompanying an upload.
type UploadInput struct {
	ClientID string
	Name     string
	Category Category
	FileName string
}
