package rewriting

import "fmt"

// APICallError represents a failed call to the rewrite endpoint or model
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// RejectedError reports a model answer that failed the output checks
type RejectedError struct {
	Field  string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rewrite of %s rejected: %s", e.Field, e.Reason)
}
