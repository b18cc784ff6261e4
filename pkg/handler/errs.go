package handler

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("handler: invalid pid")

	// ErrWriteTooLarge is returned for writes longer than MaxWriteSize.
	ErrWriteTooLarge = errors.New("handler: write too large")
)

// ParseError reports a write whose payload is not a base-10 integer.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("handler: invalid pid %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }
