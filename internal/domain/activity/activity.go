package activity

import "time"

// Entry is one row of the audit trail. Recording entries is always fire and
// forget: a failed write is logged, never surfaced to the caller.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"` // CREATE | UPDATE | DELETE
	Entity    string         `json:"entity"` // TASK | PROJECT | CLIENT | USER
	EntityID  string         `json:"entityId"`
	UserID    string         `json:"userId"`
	ProjectID *string        `json:"projectId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

const (
	EntityTask    = "TASK"
	EntityProject = "PROJECT"
	EntityClient  = "CLIENT"
	EntityUser    = "USER"
)

// Notification is a per-user inbox record, written by the worker when it
// delivers a notification job.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // "task" for now
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
