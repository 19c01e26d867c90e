package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff doubles per attempt starting at 2s, capped at 5m, with
// a little jitter so retries don't land together.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
