package jobs

import (
	"encoding/json"
	"fmt"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobNotifyTaskAssigned:
		if !isPayload[TaskAssignedPayload](payload) {
			return nil, ErrPayloadTypeMismatch
		}

	case JobNotifyTaskCompleted:
		if !isPayload[TaskCompletedPayload](payload) {
			return nil, ErrPayloadTypeMismatch
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

func isPayload[T any](payload any) bool {
	switch payload.(type) {
	case T, *T:
		return true
	default:
		return false
	}
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobNotifyTaskAssigned:
		var p TaskAssignedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	case JobNotifyTaskCompleted:
		var p TaskCompletedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil
	}

	return nil, ErrInvalidJobType
}
