package recode

import (
	"errors"
	"fmt"
	"regexp/syntax"
)

// Common compilation errors
var (
	// ErrTooComplex indicates the pattern nests deeper than MaxRecursionDepth
	ErrTooComplex = errors.New("pattern too complex")

	// ErrUnsupported indicates a regexp/syntax construct the compiler does not handle
	ErrUnsupported = errors.New("unsupported regex operation")

	// ErrUnknownTransform indicates a transform bound to a group name the pattern lacks
	ErrUnknownTransform = errors.New("transform for unknown capture group")

	// ErrInvalidConfig indicates invalid compiler configuration
	ErrInvalidConfig = errors.New("invalid compiler configuration")
)

// CompileError wraps compilation errors with the offending pattern
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
// Syntax errors are returned unchanged to match stdlib regexp messages.
func (e *CompileError) Error() string {
	var syntaxErr *syntax.Error
	if errors.As(e.Err, &syntaxErr) {
		return e.Err.Error()
	}
	if e.Pattern != "" {
		return fmt.Sprintf("recode: compiling %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("recode: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError reports a malformed program detected by Builder.Build
type BuildError struct {
	Message string
	Addr    InstAddr
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Addr != InvalidAddr {
		return fmt.Sprintf("recode: build error at %d: %s", e.Addr, e.Message)
	}
	return fmt.Sprintf("recode: build error: %s", e.Message)
}
