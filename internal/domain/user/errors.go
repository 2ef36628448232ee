package user

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email already in use")
)

// StorageError is any failure reported by the persistence layer. Op names
// the logical operation, Err is kept for logs and errors.Is/As.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
