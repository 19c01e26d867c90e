package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the dev/test delivery channel: it just logs. The env knobs
// let integration runs simulate a slow or failing provider.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendTaskAssigned(ctx context.Context, in TaskAssignedInput) error {
	if err := simulateProvider(ctx); err != nil {
		return err
	}

	log.Printf("notification.task_assigned user=%s task=%s project=%s title=%q",
		in.UserID, in.TaskID, in.ProjectID, in.TaskTitle,
	)
	return nil
}

func (n *LogNotifier) SendTaskCompleted(ctx context.Context, in TaskCompletedInput) error {
	if err := simulateProvider(ctx); err != nil {
		return err
	}

	log.Printf("notification.task_completed user=%s task=%s project=%s title=%q",
		in.UserID, in.TaskID, in.ProjectID, in.TaskTitle,
	)
	return nil
}

func simulateProvider(ctx context.Context) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
