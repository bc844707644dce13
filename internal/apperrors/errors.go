package apperrors

import "errors"

// Sentinels matched with errors.Is across service and router layers.
// Store failures are wrapped with fmt.Errorf("...: %w", err) instead,
// so anything that does not match one of these maps to a 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
)
