package regress

import (
	"errors"
	"fmt"
	"strings"
)

// DiscoveryError reports a referenced module that exported no tests.
type DiscoveryError struct {
	Module string
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to discover tests in module %q: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("no tests were discovered in module %q", e.Module)
}

// Unwrap implements the errors.Unwrap interface
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// IsDiscoveryError checks if the error is or wraps a DiscoveryError.
func IsDiscoveryError(err error) bool {
	var discErr *DiscoveryError
	return err != nil && errors.As(err, &discErr)
}

// NoTestsFoundError reports that discovery across all referenced modules
// left the queue empty.
type NoTestsFoundError struct {
	Modules []string
}

func (e *NoTestsFoundError) Error() string {
	return fmt.Sprintf("no tests were discovered in any module: %s", strings.Join(e.Modules, ", "))
}

// RuntimeError represents an operational error that should lead to exit code 2.
// Examples include configuration errors, discovery failures, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents a failure from test assertions (exit code 1)
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
