package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/task"
	"github.com/google/uuid"
)

// TasksRepo keeps tasks in a map, mostly for handler tests and local hacking.
type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(req task.CreateTaskRequest, creatorID string) (task.Task, error) {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = task.StatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var siblings []int
	for _, t := range r.items {
		if t.ProjectID == req.ProjectID && samePtr(t.ParentID, req.ParentID) {
			siblings = append(siblings, t.Order)
		}
	}

	t := task.Task{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		Priority:       priority,
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		EstimatedHours: req.EstimatedHours,
		CompletedAt:    task.NextCompletedAt(task.StatusTodo, nil, status, now),
		Order:          task.AppendOrder(siblings),
		ProjectID:      req.ProjectID,
		AssigneeID:     req.AssigneeID,
		CreatorID:      creatorID,
		ParentID:       req.ParentID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	r.items[t.ID] = t
	return t, nil
}

func (r *TasksRepo) GetByID(id string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) List(filter task.ListFilter) ([]task.Task, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []task.Task
	for _, t := range r.items {
		if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && !samePtr(t.AssigneeID, filter.AssigneeID) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, len(out), nil
}

func (r *TasksRepo) Update(id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.CompletedAt = task.NextCompletedAt(t.Status, t.CompletedAt, *req.Status, now)
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.StartDate != nil {
		t.StartDate = req.StartDate
	}
	if req.EstimatedHours != nil {
		t.EstimatedHours = req.EstimatedHours
	}
	if req.AssigneeID != nil {
		t.AssigneeID = req.AssigneeID
	}
	if req.ParentID != nil {
		t.ParentID = req.ParentID
	}
	t.UpdatedAt = now

	r.items[id] = t
	return t, nil
}

// Reorder applies every item or none of them.
func (r *TasksRepo) Reorder(items []task.ReorderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range items {
		if _, ok := r.items[it.ID]; !ok {
			return task.ErrNotFound
		}
	}

	now := time.Now().UTC()
	for _, it := range items {
		t := r.items[it.ID]
		t.Order = it.Order
		t.UpdatedAt = now
		r.items[it.ID] = t
	}
	return nil
}

func (r *TasksRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
