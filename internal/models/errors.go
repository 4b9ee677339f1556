package models

import "fmt"

// ValidationError reports a customer input problem that blocks a state
// transition. The caller corrects the input and retries.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SchemaError reports a malformed catalog source. Callers fall back to an
// empty catalog instead of crashing.
type SchemaError struct {
	Source  string
	Message string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("catalog source %s: %s", e.Source, e.Message)
}

// ExternalServiceError reports a collaborator failure (payment link, mail,
// archive write). It is surfaced as a warning and never rolls back an
// already confirmed order.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing cart line or session. Removing a line
// that is already gone is treated as a no-op by callers.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}
