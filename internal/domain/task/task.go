package task

import (
	"errors"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReview     Status = "REVIEW"
	StatusDone       Status = "DONE"
	StatusBlocked    Status = "BLOCKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// rank is used for "my tasks" style ordering (urgent first).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Order          int        `json:"order"`
	ProjectID      string     `json:"projectId"`
	AssigneeID     *string    `json:"assigneeId,omitempty"`
	CreatorID      string     `json:"creatorId"`
	ParentID       *string    `json:"parentId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

var ErrNotFound = errors.New("task not found")

// ErrParentProjectMismatch is only returned when the cross-project subtask
// policy is enforced; by default a parent in another project is accepted.
var ErrParentProjectMismatch = errors.New("parent task belongs to a different project")

type CreateTaskRequest struct {
	Title          string     `json:"title" binding:"required,min=2,max=200"`
	Description    string     `json:"description" binding:"omitempty,max=5000"`
	Status         Status     `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE BLOCKED"`
	Priority       Priority   `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate        *time.Time `json:"dueDate"`
	StartDate      *time.Time `json:"startDate"`
	EstimatedHours *float64   `json:"estimatedHours" binding:"omitempty,gt=0"`
	ProjectID      string     `json:"projectId" binding:"required,uuid"`
	AssigneeID     *string    `json:"assigneeId" binding:"omitempty,uuid"`
	ParentID       *string    `json:"parentId" binding:"omitempty,uuid"`
}

// UpdateTaskRequest is a patch; nil means "leave it alone".
type UpdateTaskRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=2,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=5000"`
	Status         *Status    `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE BLOCKED"`
	Priority       *Priority  `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate        *time.Time `json:"dueDate"`
	StartDate      *time.Time `json:"startDate"`
	EstimatedHours *float64   `json:"estimatedHours" binding:"omitempty,gt=0"`
	AssigneeID     *string    `json:"assigneeId" binding:"omitempty,uuid"`
	ParentID       *string    `json:"parentId" binding:"omitempty,uuid"`
}

// ReorderItem is one order assignment as the stores apply it.
type ReorderItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// ReorderRequestItem is the wire shape. Order is a pointer so an explicit
// zero passes the required check instead of reading as absent.
type ReorderRequestItem struct {
	ID    string `json:"id" binding:"required,uuid"`
	Order *int   `json:"order" binding:"required"`
}

type ReorderRequest struct {
	Tasks []ReorderRequestItem `json:"tasks" binding:"required,min=1,dive"`
}

func (r ReorderRequest) Items() []ReorderItem {
	out := make([]ReorderItem, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		out = append(out, ReorderItem{ID: t.ID, Order: *t.Order})
	}
	return out
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListFilter struct {
	ProjectID  *string
	Status     *Status
	Priority   *Priority
	AssigneeID *string
	Search     *string
	Page       int
	Limit      int
}

// NextCompletedAt derives the completion timestamp for a status change.
// completedAt is not user settable: it is stamped exactly when a task enters
// DONE from a non-DONE state, cleared when it leaves DONE, and untouched by a
// DONE to DONE no-op.
func NextCompletedAt(current Status, currentCompletedAt *time.Time, next Status, now time.Time) *time.Time {
	if next == StatusDone {
		if current == StatusDone {
			return currentCompletedAt
		}
		t := now
		return &t
	}
	return nil
}

// AppendOrder computes the display order for a new task given its siblings
// (same project and same parent). Gaps are fine; only the max matters.
func AppendOrder(siblingOrders []int) int {
	max := 0
	for _, o := range siblingOrders {
		if o > max {
			max = o
		}
	}
	return max + 1
}
