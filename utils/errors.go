package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoFile               = errors.New("no file uploaded")
	ErrUnsupportedMediaType = errors.New("only PDFs supported")
	ErrFileTooLarge         = errors.New("file too large")
	ErrExtraction           = errors.New("failed to parse PDF")
	ErrEmptyDocument        = errors.New("could not extract text")
	ErrConfiguration        = errors.New("invalid configuration")
	ErrNotFound             = errors.New("not found")
)

// AppError is an error with the HTTP status and machine-readable code it maps to.
type AppError struct {
	Code    int
	Kind    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// MapError maps an error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNoFile):
		return NewAppError(http.StatusBadRequest, "NoFile", ErrNoFile.Error(), err)
	case errors.Is(err, ErrUnsupportedMediaType):
		return NewAppError(http.StatusBadRequest, "UnsupportedMediaType", ErrUnsupportedMediaType.Error(), err)
	case errors.Is(err, ErrFileTooLarge):
		return NewAppError(http.StatusRequestEntityTooLarge, "FileTooLarge", ErrFileTooLarge.Error(), err)
	case errors.Is(err, ErrEmptyDocument):
		return NewAppError(http.StatusUnprocessableEntity, "EmptyDocument", ErrEmptyDocument.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "NotFound", "resource not found", err)
	case errors.Is(err, ErrExtraction):
		return NewAppError(http.StatusInternalServerError, "Extraction", err.Error(), err)
	case errors.Is(err, ErrConfiguration):
		return NewAppError(http.StatusInternalServerError, "Configuration", "server misconfigured", err)
	}

	return NewAppError(http.StatusInternalServerError, "Internal", "internal server error", err)
}

// StageError records which ingestion stage failed, for logging.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err with the stage it happened in. A nil err stays nil.
func AtStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the innermost recorded stage of err, or "" when none was recorded.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
