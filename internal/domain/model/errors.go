package model

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every ValidationError via errors.Is.
var ErrInvalid = errors.New("invalid input")

// ValidationError reports input rejected before any repository write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
