package apperror

import "errors"

var (
	ErrInvalidPlayer    = errors.New("invalid player id")
	ErrRosterAtCapacity = errors.New("roster is at capacity")
	ErrUnknownGameType  = errors.New("unknown game type")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExists    = errors.New("session already exists")
	ErrLastSession      = errors.New("cannot delete the last session")
)
