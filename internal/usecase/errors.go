package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrLimitReached          = errors.New("plan limit reached")
	ErrFormatNotAllowed      = errors.New("format not allowed on current plan")
)
