package jobs

// TaskAssignedPayload notifies the assignee that a task landed on their
// plate. ActorID is whoever made the assignment; no notification is
// enqueued for self-assignment.
type TaskAssignedPayload struct {
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	ProjectID  string `json:"projectId"`
	AssigneeID string `json:"assigneeId"`
	ActorID    string `json:"actorId"`
}

// TaskCompletedPayload notifies the task creator that someone else moved
// their task to DONE.
type TaskCompletedPayload struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	ProjectID string `json:"projectId"`
	CreatorID string `json:"creatorId"`
	ActorID   string `json:"actorId"`
}
