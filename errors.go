package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies game errors so handlers can map them to HTTP
// statuses without inspecting message text.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConflict
	KindUnauthorized
	KindForbidden
	KindPreconditionFailed
	KindGenerationFailure
)

type GameError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Err
}

func newGameError(kind ErrorKind, format string, args ...any) *GameError {
	return &GameError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func errNotFound(format string, args ...any) *GameError {
	return newGameError(KindNotFound, format, args...)
}

func errConflict(format string, args ...any) *GameError {
	return newGameError(KindConflict, format, args...)
}

func errUnauthorized(format string, args ...any) *GameError {
	return newGameError(KindUnauthorized, format, args...)
}

func errForbidden(format string, args ...any) *GameError {
	return newGameError(KindForbidden, format, args...)
}

func errPrecondition(format string, args ...any) *GameError {
	return newGameError(KindPreconditionFailed, format, args...)
}

func errGeneration(format string, args ...any) *GameError {
	return newGameError(KindGenerationFailure, format, args...)
}

// errKind reports the kind of err, or 0 if err is not a GameError.
func errKind(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return 0
}

func httpStatus(err error) int {
	switch errKind(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
