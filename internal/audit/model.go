package audit

import "time"

const (
	EntityContract = "contract"

	ActionCreate        = "create"
	ActionStatusChange  = "status_change"
	ActionDetailsUpdate = "details_update"
)

// Entry is one audit log record.
type Entry struct {
	ID         string
	Entity     string
	EntityID   string
	Action     string
	ActorID    string
	FromStatus string
	ToStatus   string
	Details    map[string]any
	CreatedAt  time.Time
}
