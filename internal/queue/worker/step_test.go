package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/dcarvalho/projectdesk/internal/notifications"
)

type fakeJobsRepo struct {
	claimNextFn    func(ctx context.Context, workerID string) (jobs.Job, error)
	markDoneFn     func(ctx context.Context, id string) error
	markFailedFn   func(ctx context.Context, id string, errMsg string) error
	rescheduleFn   func(ctx context.Context, id string, runAt time.Time, errMsg string) error
	requeueStaleFn func(ctx context.Context, lockTTL time.Duration) (int64, error)
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (jobs.Job, error) {
	return f.claimNextFn(ctx, workerID)
}
func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	return f.markDoneFn(ctx, id)
}
func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return f.markFailedFn(ctx, id, errMsg)
}
func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return f.rescheduleFn(ctx, id, runAt, errMsg)
}
func (f *fakeJobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	return f.requeueStaleFn(ctx, lockTTL)
}

type fakeInbox struct {
	createFn func(ctx context.Context, n activity.Notification) error
}

func (f *fakeInbox) Create(ctx context.Context, n activity.Notification) error {
	return f.createFn(ctx, n)
}

type fakeNotifier struct {
	assignedFn  func(ctx context.Context, in notifications.TaskAssignedInput) error
	completedFn func(ctx context.Context, in notifications.TaskCompletedInput) error
}

func (f *fakeNotifier) SendTaskAssigned(ctx context.Context, in notifications.TaskAssignedInput) error {
	return f.assignedFn(ctx, in)
}
func (f *fakeNotifier) SendTaskCompleted(ctx context.Context, in notifications.TaskCompletedInput) error {
	return f.completedFn(ctx, in)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assignedJob(t *testing.T, attempts int) jobs.Job {
	t.Helper()

	payload, err := jobs.EncodePayload(jobs.JobNotifyTaskAssigned, jobs.TaskAssignedPayload{
		TaskID:     "t1",
		TaskTitle:  "pour foundation",
		ProjectID:  "p1",
		AssigneeID: "u2",
		ActorID:    "u1",
	})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	j, err := jobs.NewJob(jobs.JobNotifyTaskAssigned, payload, time.Time{})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	j.Attempts = attempts
	return j
}

func TestProcessOneNoJob(t *testing.T) {
	repo := &fakeJobsRepo{
		claimNextFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return jobs.Job{}, jobs.ErrJobNotFound
		},
	}

	w := New(Config{WorkerID: "w1"}, repo, &fakeInbox{}, &fakeNotifier{}, testLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("processed = true; want false on empty queue")
	}
}

func TestProcessOneDeliversAndMarksDone(t *testing.T) {
	job := assignedJob(t, 0)

	var inboxUser string
	var sentTask string
	var doneID string

	repo := &fakeJobsRepo{
		claimNextFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return job, nil
		},
		markDoneFn: func(ctx context.Context, id string) error {
			doneID = id
			return nil
		},
	}
	inbox := &fakeInbox{
		createFn: func(ctx context.Context, n activity.Notification) error {
			inboxUser = n.UserID
			return nil
		},
	}
	notifier := &fakeNotifier{
		assignedFn: func(ctx context.Context, in notifications.TaskAssignedInput) error {
			sentTask = in.TaskID
			return nil
		},
	}

	w := New(Config{WorkerID: "w1"}, repo, inbox, notifier, testLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("processed = false; want true")
	}
	if inboxUser != "u2" {
		t.Fatalf("inbox user = %q; want u2", inboxUser)
	}
	if sentTask != "t1" {
		t.Fatalf("sent task = %q; want t1", sentTask)
	}
	if doneID != job.ID {
		t.Fatalf("done id = %q; want %q", doneID, job.ID)
	}
}

func TestProcessOneReschedulesOnFailure(t *testing.T) {
	job := assignedJob(t, 1)

	var rescheduled bool
	var gotErrMsg string

	repo := &fakeJobsRepo{
		claimNextFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return job, nil
		},
		rescheduleFn: func(ctx context.Context, id string, runAt time.Time, errMsg string) error {
			rescheduled = true
			gotErrMsg = errMsg
			if !runAt.After(time.Now().UTC()) {
				t.Errorf("runAt = %v; want in the future", runAt)
			}
			return nil
		},
		markFailedFn: func(ctx context.Context, id string, errMsg string) error {
			t.Error("MarkFailed called; attempts not exhausted yet")
			return nil
		},
	}
	inbox := &fakeInbox{
		createFn: func(ctx context.Context, n activity.Notification) error {
			return errors.New("db down")
		},
	}

	w := New(Config{WorkerID: "w1"}, repo, inbox, &fakeNotifier{}, testLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("processed = false; want true")
	}
	if !rescheduled {
		t.Fatal("expected a reschedule")
	}
	if gotErrMsg == "" {
		t.Fatal("expected the failure message to be recorded")
	}
}

func TestProcessOneParksExhaustedJob(t *testing.T) {
	job := assignedJob(t, 4) // MaxAttempts is 5

	var failed bool

	repo := &fakeJobsRepo{
		claimNextFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return job, nil
		},
		markFailedFn: func(ctx context.Context, id string, errMsg string) error {
			failed = true
			return nil
		},
		rescheduleFn: func(ctx context.Context, id string, runAt time.Time, errMsg string) error {
			t.Error("Reschedule called; attempts are exhausted")
			return nil
		},
	}
	inbox := &fakeInbox{
		createFn: func(ctx context.Context, n activity.Notification) error {
			return errors.New("db down")
		},
	}

	w := New(Config{WorkerID: "w1"}, repo, inbox, &fakeNotifier{}, testLogger(), nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !failed {
		t.Fatal("expected the job to be parked as failed")
	}
}

func TestExponentialBackoffCaps(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d > 3*time.Second {
		t.Fatalf("attempt 0 delay = %v; want ~2s", d)
	}
	if d := ExponentialBackoff(20); d > 5*time.Minute+time.Second {
		t.Fatalf("large attempt delay = %v; want capped at 5m", d)
	}
}
