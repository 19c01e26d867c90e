package notifications

import "context"

type TaskAssignedInput struct {
	UserID    string
	TaskID    string
	TaskTitle string
	ProjectID string
}

type TaskCompletedInput struct {
	UserID    string
	TaskID    string
	TaskTitle string
	ProjectID string
}

// Notifier is the outbound delivery channel (email, chat, push...). The
// worker never depends on its success to mark a job done once the inbox
// record is written.
type Notifier interface {
	SendTaskAssigned(ctx context.Context, input TaskAssignedInput) error
	SendTaskCompleted(ctx context.Context, input TaskCompletedInput) error
}
