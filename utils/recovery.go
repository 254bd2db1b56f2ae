package utils

import (
	"fmt"
	"runtime/debug"
)

// RecoverFromPanic recovers from panics and logs them
func RecoverFromPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.Error("panic recovered", "context", context, "panic", r, "stack", string(debug.Stack()))
	}
}

// SafeGo runs a goroutine with panic recovery
func SafeGo(logger *Logger, context string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, context)
		fn()
	}()
}

// SafeGoWithError runs a goroutine with panic recovery and error handling
func SafeGoWithError(logger *Logger, context string, fn func() error, onError func(error)) {
	go func() {
		defer RecoverFromPanic(logger, context)
		if err := fn(); err != nil {
			logger.Error("background task failed", "context", context, "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// WrapError wraps an error with additional context
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
