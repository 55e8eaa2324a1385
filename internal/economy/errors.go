package economy

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientFunds = errors.New("not enough clicks")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidState      = errors.New("invalid game state")
)

// InsufficientFundsError reports a failed purchase with the amounts involved.
// It matches ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Needed    float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: needed %.0f, have %.2f", ErrInsufficientFunds, e.Needed, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrItemNotFound, name)
}
