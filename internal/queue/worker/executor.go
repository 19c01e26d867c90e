package worker

import (
	"context"
	"fmt"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/dcarvalho/projectdesk/internal/notifications"
)

// execute writes the recipient's inbox row first, then pushes through the
// outbound notifier. Failures in either step trigger the retry path; the
// inbox insert is idempotent enough here because retries reuse the job id
// as the notification id.
func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.TaskAssignedPayload:
		n := activity.Notification{
			ID:      j.ID,
			UserID:  p.AssigneeID,
			Title:   "Task assigned",
			Message: fmt.Sprintf("You were assigned the task %q", p.TaskTitle),
			Type:    "task",
			Link:    "/projects/" + p.ProjectID + "/tasks/" + p.TaskID,
		}
		if err := w.inbox.Create(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		return w.notifier.SendTaskAssigned(ctx, notifications.TaskAssignedInput{
			UserID:    p.AssigneeID,
			TaskID:    p.TaskID,
			TaskTitle: p.TaskTitle,
			ProjectID: p.ProjectID,
		})

	case jobs.TaskCompletedPayload:
		n := activity.Notification{
			ID:      j.ID,
			UserID:  p.CreatorID,
			Title:   "Task completed",
			Message: fmt.Sprintf("The task %q was marked done", p.TaskTitle),
			Type:    "task",
			Link:    "/projects/" + p.ProjectID + "/tasks/" + p.TaskID,
		}
		if err := w.inbox.Create(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		return w.notifier.SendTaskCompleted(ctx, notifications.TaskCompletedInput{
			UserID:    p.CreatorID,
			TaskID:    p.TaskID,
			TaskTitle: p.TaskTitle,
			ProjectID: p.ProjectID,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}
