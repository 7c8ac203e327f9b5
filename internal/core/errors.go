package core

import "errors"

// Failure taxonomy. Callers classify with errors.Is; the HTTP layer maps each
// kind to a status code. Every failure is local to a single request and leaves
// existing state unchanged.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
)
