package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps fn so that a panic inside it surfaces as a returned error
// instead of taking the process down.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext is Safe for context-taking functions.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}
