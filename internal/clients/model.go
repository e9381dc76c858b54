package clients

import "time"

// Client is a consulting customer whose documents and contracts are managed here.
type Client struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
