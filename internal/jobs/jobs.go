package jobs

import (
	"time"

	"github.com/google/uuid"
)

// a Job is one unit of asynchronous work, persisted in the jobs table and
// claimed by the worker binary.

type Job struct {
	ID          string    `json:"id"`
	Type        JobType   `json:"type"`
	Payload     []byte    `json:"payload"` // raw json
	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	RunAt       time.Time `json:"runAt"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
	LockedBy    *string    `json:"lockedBy,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewJob builds a pending job with defaults.

func NewJob(t JobType, payloadJSON []byte, runAt time.Time) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	now := time.Now().UTC()

	if runAt.IsZero() {
		runAt = now
	}

	j := Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     payloadJSON,
		Status:      JobPending,
		Attempts:    0,
		MaxAttempts: 5,
		RunAt:       runAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return j, nil
}
