package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeTaskAssigned(t *testing.T) {
	in := TaskAssignedPayload{
		TaskID:     "t-1",
		TaskTitle:  "Pour foundation",
		ProjectID:  "p-1",
		AssigneeID: "u-2",
		ActorID:    "u-1",
	}

	b, err := EncodePayload(JobNotifyTaskAssigned, in)
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	j, err := NewJob(JobNotifyTaskAssigned, b, time.Time{})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	if j.Status != JobPending || j.MaxAttempts != 5 {
		t.Fatalf("unexpected job defaults: %+v", j)
	}

	out, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}

	got, ok := out.(TaskAssignedPayload)
	if !ok {
		t.Fatalf("expected TaskAssignedPayload, got %T", out)
	}

	if got != in {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, in)
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	_, err := EncodePayload(JobNotifyTaskAssigned, TaskCompletedPayload{TaskID: "t-1"})

	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestInvalidJobType(t *testing.T) {
	if _, err := EncodePayload(JobType("export_csv"), nil); !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}

	if _, err := NewJob(JobType("export_csv"), nil, time.Time{}); !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	j := Job{Type: JobNotifyTaskCompleted}

	if _, err := DecodePayload(j); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}
