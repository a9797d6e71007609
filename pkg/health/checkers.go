package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running,
// which usually means a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// ConditionCheck fails with msg while cond returns false.
func ConditionCheck(cond func() bool, msg string) CheckFunc {
	return func(_ context.Context) error {
		if !cond() {
			return errors.New(msg)
		}
		return nil
	}
}
