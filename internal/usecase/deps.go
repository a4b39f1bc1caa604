// Package usecase holds the application operations on strategies and market
// data. Every precondition is checked before a repository is touched;
// violations are *model.ValidationError.
package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a fresh unique suffix for new ids.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string { return uuid.NewString() }

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
