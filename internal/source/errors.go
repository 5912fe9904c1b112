package source

import "fmt"

// InitializationError reports an unusable construction: ambiguous inputs,
// a missing parameters cell at load time, or an unresolvable kernel. No
// partial facade survives it.
type InitializationError struct {
	msg string
}

func (e *InitializationError) Error() string { return e.msg }

func initErrorf(format string, args ...any) *InitializationError {
	return &InitializationError{msg: fmt.Sprintf(format, args...)}
}

// RenderValidationError is the composite of parameter findings and static
// checker findings, raised exactly once after everything wrong has been
// collected. Recoverable: catch, fix the inputs, re-render.
type RenderValidationError struct {
	Report string
}

func (e *RenderValidationError) Error() string {
	return "notebook validation failed:\n" + e.Report
}

// UsageError signals a caller bug rather than a data problem: reading
// rendered state before rendering, or requesting static analysis for an
// unsupported language.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}
