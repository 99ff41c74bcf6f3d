package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCurrencyNotFound    = errors.New("currency not found")
	ErrNoProviderAvailable = errors.New("no active provider available")
	ErrAllProvidersFailed  = errors.New("all providers failed")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNoRate              = errors.New("no rate for query")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrValidation          = errors.New("validation failed")
)

// DuplicatePriorityError reports a provider write whose priority collides
// with another provider's current priority. Holder is the display name of
// the provider that already owns the priority.
type DuplicatePriorityError struct {
	Priority int
	Holder   string
}

func (e *DuplicatePriorityError) Error() string {
	return fmt.Sprintf("priority %d is already assigned to %s", e.Priority, e.Holder)
}

func (e *DuplicatePriorityError) Is(target error) bool { return target == ErrValidation }
