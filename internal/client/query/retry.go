package query

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

// do runs fn up to attempts times with exponential backoff starting at
// base. Context cancellation, invalid input and authorization failures are
// not retried. It returns the number of attempts made.
func do(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))

	made := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		made++
		err := fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
	return made, err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidPath),
		errors.Is(err, common.ErrInvalidDocument):
		return false
	}
	return true
}
