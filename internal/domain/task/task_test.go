package task

import (
	"testing"
	"time"
)

func TestNextCompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)

	tests := []struct {
		name    string
		current Status
		currAt  *time.Time
		next    Status
		want    *time.Time
	}{
		{
			name:    "todo to done stamps now",
			current: StatusTodo,
			currAt:  nil,
			next:    StatusDone,
			want:    &now,
		},
		{
			name:    "blocked to done stamps now",
			current: StatusBlocked,
			currAt:  nil,
			next:    StatusDone,
			want:    &now,
		},
		{
			name:    "done to todo clears",
			current: StatusDone,
			currAt:  &earlier,
			next:    StatusTodo,
			want:    nil,
		},
		{
			name:    "done to done keeps the original stamp",
			current: StatusDone,
			currAt:  &earlier,
			next:    StatusDone,
			want:    &earlier,
		},
		{
			name:    "in progress to review stays nil",
			current: StatusInProgress,
			currAt:  nil,
			next:    StatusReview,
			want:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextCompletedAt(tc.current, tc.currAt, tc.next, now)

			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil completedAt, got %v", *got)
				}
				return
			}

			if got == nil {
				t.Fatalf("expected %v, got nil", *tc.want)
			}

			if !got.Equal(*tc.want) {
				t.Fatalf("expected %v, got %v", *tc.want, *got)
			}
		})
	}
}

func TestAppendOrder(t *testing.T) {
	tests := []struct {
		name     string
		siblings []int
		want     int
	}{
		{name: "no siblings starts at 1", siblings: nil, want: 1},
		{name: "dense orders", siblings: []int{1, 2, 3}, want: 4},
		{name: "gaps only bump the max", siblings: []int{1, 2, 5}, want: 6},
		{name: "unsorted input", siblings: []int{7, 2, 4}, want: 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AppendOrder(tc.siblings); got != tc.want {
				t.Fatalf("AppendOrder(%v) = %d, want %d", tc.siblings, got, tc.want)
			}
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}

	if Status("ARCHIVED").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
