package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPin      = errors.New("no live session has that pin")
	ErrPinExhausted    = errors.New("could not generate a unique pin")
)
