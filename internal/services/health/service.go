package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Storage  string `json:"storage"`
	Database string `json:"database,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil when running on
// in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second}
}

// Status reports whether the service and its database are reachable.
func (s *Service) Status(ctx context.Context) Report {
	if s.DB == nil {
		return Report{OK: true, Storage: "memory"}
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		return Report{OK: false, Storage: "postgres", Database: err.Error()}
	}
	return Report{OK: true, Storage: "postgres", Database: "ok"}
}
