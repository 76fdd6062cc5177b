// internal/inference/loader.go
package inference

import (
	"fmt"
	"log"
	"time"
)

// SleepFunc pauses between load attempts. Production callers pass nil to get
// time.Sleep; tests inject their own to keep the retry loop instant.
type SleepFunc func(time.Duration)

// LoadWithRetry calls open until it succeeds, making up to attempts tries
// with a fixed delay between them. Model loading is a one-time startup
// concern; per-request inference never retries.
func LoadWithRetry(open func() (Engine, error), attempts int, delay time.Duration, sleep SleepFunc) (Engine, error) {
	if attempts < 1 {
		attempts = 1
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		engine, err := open()
		if err == nil {
			return engine, nil
		}
		lastErr = err
		log.Printf("Model load attempt %d/%d failed: %v", i, attempts, err)
		if i < attempts {
			sleep(delay)
		}
	}

	return nil, fmt.Errorf("model load failed after %d attempts: %w", attempts, lastErr)
}
