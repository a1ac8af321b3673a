package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxContentLength is the maximum number of characters a todo may hold.
const MaxContentLength = 30

// ValidationError carries a message meant to be shown next to the form
// that produced the invalid input. The message is fixed when the error is
// declared.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

var (
	ErrContentRequired = &ValidationError{msg: "Must be non-empty"}
	ErrContentTooLong  = &ValidationError{msg: "Exceeds limit of 30 characters"}
)

// ValidateContent reports whether content may be stored as a todo.
func ValidateContent(content string) error {
	if IsBlank(content) {
		return ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// IsBlank reports whether content holds nothing but whitespace.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}
