package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session related errors
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("forbidden")

	// Event related errors
	ErrEventNotFound = errors.New("event not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
