package domain

import (
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("invalid input")

// PersistenceError reports a rejected write to the key-value store.
type PersistenceError struct {
	Op  string // add|remove|update|delete
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NetworkError is returned by the recommendation and lodging clients.
// Message is meant to be shown to the user as is.
type NetworkError struct {
	Message string
	Status  int // 0 when no response was received
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }
