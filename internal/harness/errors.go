package harness

import (
	"errors"
	"fmt"
)

// ParseError reports source text without a recognizable function
// declaration, or an argument literal that is not valid JSON.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// UnsupportedLanguageError is returned by every language without an
// executable backend.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Language %s is not supported for execution yet", e.Language)
}

// RuntimeError carries the message thrown while constructing or invoking
// user code. Interrupted is set when the interpreter was stopped by the
// execution timeout or a cancelled context rather than by the code itself.
type RuntimeError struct {
	Msg         string
	Interrupted bool
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

// IsInterrupted reports whether err is a RuntimeError from an interrupted run.
func IsInterrupted(err error) bool {
	var rerr *RuntimeError
	return errors.As(err, &rerr) && rerr.Interrupted
}
