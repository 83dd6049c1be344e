package services

import "errors"

// ErrNotInitialized matches every NotInitializedError via errors.Is.
var ErrNotInitialized = errors.New("service not initialized")

// NotInitializedError is returned by a service method called before Init.
type NotInitializedError struct {
	Service string
}

func (e *NotInitializedError) Error() string {
	return "service not initialized: " + e.Service
}

func (e *NotInitializedError) Is(target error) bool {
	return target == ErrNotInitialized
}
