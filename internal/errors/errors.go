package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeConfiguration ErrCode = "CONFIGURATION"
	ErrCodeRequestFailed ErrCode = "REQUEST_FAILED"
	ErrCodeAnalysisFetch ErrCode = "ANALYSIS_FETCH"
	ErrCodeNotFound      ErrCode = "NOT_FOUND"
	ErrCodeBadRequest    ErrCode = "BAD_REQUEST"
	ErrCodeInternal      ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Err:     err,
	}
}

// StatusError is returned when the remote API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("API error: %s - %s", e.Status, e.Body)
	}
	return fmt.Sprintf("API error: %s", e.Status)
}

// RequestError is returned once every retry of a request has failed
type RequestError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s failed after %d retries: %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AppError converts the request error for API responses
func (e *RequestError) AppError() *AppError {
	return &AppError{
		Code:    ErrCodeRequestFailed,
		Message: fmt.Sprintf("request to %s failed", e.URL),
		Err:     e.Err,
	}
}

// AnalysisFetchError wraps any failure other than "not analyzed" while loading a repository analysis
type AnalysisFetchError struct {
	Repository string
	Err        error
}

func (e *AnalysisFetchError) Error() string {
	return fmt.Sprintf("failed to fetch analysis for %s: %v", e.Repository, e.Err)
}

func (e *AnalysisFetchError) Unwrap() error {
	return e.Err
}

// AppError converts the analysis error for API responses
func (e *AnalysisFetchError) AppError() *AppError {
	return &AppError{
		Code:    ErrCodeAnalysisFetch,
		Message: fmt.Sprintf("failed to fetch analysis for %s", e.Repository),
		Err:     e.Err,
	}
}

// AsAppError maps any error onto the application taxonomy.
// Errors that carry no code become INTERNAL_ERROR.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var analysisErr *AnalysisFetchError
	if errors.As(err, &analysisErr) {
		return analysisErr.AppError()
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.AppError()
	}
	return NewInternalError(err.Error(), err)
}

// IsStatus checks if the error chain contains a StatusError with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == code
	}
	return false
}

// IsNotFound checks if the error is a not found error, either an AppError or an HTTP 404
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound {
		return true
	}
	return IsStatus(err, http.StatusNotFound)
}

// IsRequestError checks if the error is an exhausted-retries request error
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
