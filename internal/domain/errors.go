package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNetwork     = errors.New("network error")
	ErrTimeout     = errors.New("request timed out")
	ErrAuthExpired = errors.New("authentication expired")
)

// APIError is the single error shape produced by the HTTP client. Status is 0
// when no response was received. Kind, when set, is one of ErrNetwork,
// ErrTimeout or ErrAuthExpired and is matched by errors.Is.
type APIError struct {
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// ValidationError carries per-field messages for client-side checks that
// fail before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ErrorMessage extracts the user-facing message from any error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// ResultFromError converts an operation error into a failed Result.
func ResultFromError(err error) Result {
	res := Result{Error: ErrorMessage(err)}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		res.FieldErrors = vErr.Fields
	}
	return res
}
