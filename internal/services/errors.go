package services

import (
	"errors"
	"fmt"
)

// ErrDataAccess marks failures reading from a backing store
var ErrDataAccess = errors.New("data access failure")

func dataAccessError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrDataAccess, err)
}
