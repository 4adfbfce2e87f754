package httpx

import "errors"

// Sentinel errors shared by the domain layer. Handlers translate them into
// endpoint-specific messages; the agent surfaces them as per-action result lines.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)
