package util

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryTimer is interface retry
type RetryTimer interface {
	Run(ctx context.Context, callback RetryTimerCallback) error
}

// RetryTimerCallback is callback function type for RetryTimer
type RetryTimerCallback func(seq int) (exit bool, err error)

// RetryTimerFactory is
type RetryTimerFactory func(limit int) RetryTimer

// ErrRetryLimitExceeded indicates error message for exceeding limit of RetryTimer
var ErrRetryLimitExceeded = fmt.Errorf("Limit of RetryTimer exceeded")

type expRetryTimer struct {
	limit      int
	unit       time.Duration
	retryCount int
}

// NewExpRetryTimer is constructor of expRetryTimer (Exponential backoff timer).
// Wait starts from 0.5 second and grows up to 2 seconds.
func NewExpRetryTimer(limit int) RetryTimer {
	return &expRetryTimer{limit: limit, unit: time.Second}
}

// NewScaledExpRetryTimerFactory returns factory of exponential backoff timer
// whose wait is measured in unit instead of second.
func NewScaledExpRetryTimerFactory(unit time.Duration) RetryTimerFactory {
	return func(limit int) RetryTimer {
		return &expRetryTimer{limit: limit, unit: unit}
	}
}

func (x *expRetryTimer) Run(ctx context.Context, callback RetryTimerCallback) error {
	for i := 0; i < x.limit; i++ {
		exit, err := callback(i)
		if err != nil {
			return err
		}
		if exit {
			return nil
		}

		if i+1 == x.limit {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(x.calcWaitTime()):
		}
	}

	return ErrRetryLimitExceeded
}

func (x *expRetryTimer) calcWaitTime() time.Duration {
	wait := math.Pow(2.0, float64(x.retryCount))/64 + 0.5
	if wait > 2 {
		wait = 2
	}
	x.retryCount++
	return time.Duration(wait * float64(x.unit))
}
