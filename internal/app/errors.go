package app

import (
	"errors"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

var (
	ErrNotFound        = ports.ErrNotFound
	ErrConflict        = ports.ErrConflict
	ErrTransport       = ports.ErrTransport
	ErrStateCorruption = domain.ErrStateCorruption
	ErrInvalidSelector = domain.ErrInvalidSelector
)

// CodedError porte un code d'erreur stable, repris par l'API HTTP et la CLI.
//
// Codes: transport, not_found, conflict, state_corruption, invalid_selector, internal.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// Coded wraps err with the code matching its sentinel. A nil err stays nil.
func Coded(message string, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: ErrorCode(err), Message: message, Err: err}
}

// ErrorCode classifies err against the error taxonomy.
func ErrorCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) && coded.Code != "" {
		return coded.Code
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStateCorruption):
		return "state_corruption"
	case errors.Is(err, ErrInvalidSelector):
		return "invalid_selector"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
