package docscore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCheckerUnavailable is returned by checkers that cannot run at all.
var ErrCheckerUnavailable = errors.New("text quality checker unavailable")

// DefaultCheckTimeout bounds a single checker call.
const DefaultCheckTimeout = 10 * time.Second

// TextQualityChecker counts writing problems (grammar, spelling, style) in
// a piece of text.
type TextQualityChecker interface {
	Check(ctx context.Context, text string) (int, error)
}

// CheckerFunc adapts a plain function to TextQualityChecker.
type CheckerFunc func(ctx context.Context, text string) (int, error)

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, text string) (int, error) {
	return f(ctx, text)
}

// NoopChecker is used when no checker is configured. It always reports that
// it is unavailable, so the grammar contribution falls back to zero.
type NoopChecker struct{}

// Check implements TextQualityChecker.
func (NoopChecker) Check(context.Context, string) (int, error) {
	return 0, ErrCheckerUnavailable
}

type checkResult struct {
	count int
	err   error
}

// checkWithTimeout runs checker with a deadline and returns when either the
// checker finishes or the deadline passes, whichever is first. A checker that
// ignores its context is abandoned rather than waited on.
func checkWithTimeout(ctx context.Context, checker TextQualityChecker, text string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan checkResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- checkResult{err: fmt.Errorf("checker panicked: %v", r)}
			}
		}()
		n, err := checker.Check(ctx, text)
		done <- checkResult{count: n, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return 0, res.err
		}
		if res.count < 0 {
			return 0, fmt.Errorf("checker returned negative error count %d", res.count)
		}
		return res.count, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("checker timed out: %w", ctx.Err())
	}
}
