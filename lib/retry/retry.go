// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package retry provides bounded exponential backoff for remote calls.
//
// The store wraps every GitHub write-path call in retry.Do with a
// policy whose Retryable predicate is github.IsTransient: network
// failures and 5xx responses are retried, definitive answers (404,
// permission errors, validation failures) surface immediately. The
// backoff waits go through an injected clock so tests run without
// sleeping.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/clock"
)

// Policy describes a retry schedule.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// InitialDelay is the wait before the second attempt. Each
	// subsequent wait is multiplied by Multiplier.
	InitialDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64

	// Retryable reports whether an error is worth retrying. A nil
	// predicate retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the store's standard schedule: 3 attempts,
// starting at 1 second, doubling.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: time.Second,
		Multiplier:   2,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the
// policy's attempts are exhausted, or ctx is cancelled. The operation
// name appears in the final error for logging context.
func Do(ctx context.Context, clk clock.Clock, policy Policy, operation string, fn func(context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if policy.Retryable != nil && !policy.Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		select {
		case <-clk.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if policy.Multiplier > 0 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", operation, attempts, lastErr)
}
