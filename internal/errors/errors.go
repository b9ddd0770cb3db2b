// internal/errors/errors.go
package appErrors

import "fmt"

// StoreUnavailableError means the user store could not be reached or the
// segmentation query could not be executed. Fatal to the run.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Helper constructor
func NewStoreUnavailable(err error) error {
	return &StoreUnavailableError{Err: err}
}

// ConfigMissingError means a required run resource (query file, campaign
// identity) is absent. Fatal before any query or dispatch.
type ConfigMissingError struct {
	Resource string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Resource)
}

func NewConfigMissing(resource string) error {
	return &ConfigMissingError{Resource: resource}
}

// DispatchRejectedError means a single campaign-trigger call failed.
// Local to one user: recorded and counted, never aborts the run.
type DispatchRejectedError struct {
	UserID int
	Reason string
}

func (e *DispatchRejectedError) Error() string {
	return fmt.Sprintf("campaign dispatch rejected for user %d: %s", e.UserID, e.Reason)
}

func NewDispatchRejected(userID int, reason string) error {
	return &DispatchRejectedError{UserID: userID, Reason: reason}
}
