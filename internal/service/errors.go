package service

import (
	"github.com/pkg/errors"

	"study-planner/internal/repository"
)

var (
	ErrForbidden = errors.New("permission denied")
	ErrNotFound  = repository.ErrNotFound
	ErrConflict  = repository.ErrConflict
)

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports invalid input, either as a whole (Err) or per field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "validation failed"
}
