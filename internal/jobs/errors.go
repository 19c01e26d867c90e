package jobs

import "errors"

var (
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type does not match job type")
	ErrJobNotFound         = errors.New("job not found")
)
