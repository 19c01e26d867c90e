package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/task"
)

func TestCreateAppendsOrderPerSiblingGroup(t *testing.T) {
	r := NewTasksRepo()

	first, err := r.Create(task.CreateTaskRequest{Title: "survey site", ProjectID: "p1"}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := r.Create(task.CreateTaskRequest{Title: "draft plans", ProjectID: "p1"}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := r.Create(task.CreateTaskRequest{Title: "kickoff", ProjectID: "p2"}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Order != 1 || second.Order != 2 {
		t.Fatalf("sibling orders = %d, %d; want 1, 2", first.Order, second.Order)
	}
	if other.Order != 1 {
		t.Fatalf("other project order = %d; want 1", other.Order)
	}

	sub, err := r.Create(task.CreateTaskRequest{Title: "subtask", ProjectID: "p1", ParentID: &first.ID}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.Order != 1 {
		t.Fatalf("subtask order = %d; want 1 (own sibling group)", sub.Order)
	}
}

func TestUpdateStampsAndClearsCompletedAt(t *testing.T) {
	r := NewTasksRepo()

	created, err := r.Create(task.CreateTaskRequest{Title: "pour foundation", ProjectID: "p1"}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := task.StatusDone
	now := time.Now().UTC()

	updated, err := r.Update(created.ID, task.UpdateTaskRequest{Status: &done}, now)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(now) {
		t.Fatalf("completedAt = %v; want %v", updated.CompletedAt, now)
	}

	// DONE to DONE keeps the original stamp.
	later := now.Add(time.Hour)
	updated, err = r.Update(created.ID, task.UpdateTaskRequest{Status: &done}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(now) {
		t.Fatalf("completedAt after no-op = %v; want %v", updated.CompletedAt, now)
	}

	todo := task.StatusTodo
	updated, err = r.Update(created.ID, task.UpdateTaskRequest{Status: &todo}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CompletedAt != nil {
		t.Fatalf("completedAt after reopen = %v; want nil", updated.CompletedAt)
	}
}

func TestReorderIsAllOrNothing(t *testing.T) {
	r := NewTasksRepo()

	a, _ := r.Create(task.CreateTaskRequest{Title: "a", ProjectID: "p1"}, "u1")
	b, _ := r.Create(task.CreateTaskRequest{Title: "b", ProjectID: "p1"}, "u1")

	err := r.Reorder([]task.ReorderItem{
		{ID: a.ID, Order: 9},
		{ID: "does-not-exist", Order: 1},
	})
	if !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("err = %v; want task.ErrNotFound", err)
	}

	got, _ := r.GetByID(a.ID)
	if got.Order != 1 {
		t.Fatalf("order after failed batch = %d; want untouched 1", got.Order)
	}

	if err := r.Reorder([]task.ReorderItem{{ID: a.ID, Order: 2}, {ID: b.ID, Order: 1}}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	gotA, _ := r.GetByID(a.ID)
	gotB, _ := r.GetByID(b.ID)
	if gotA.Order != 2 || gotB.Order != 1 {
		t.Fatalf("orders = %d, %d; want 2, 1", gotA.Order, gotB.Order)
	}
}
