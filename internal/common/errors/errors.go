// Package errors provides the standardized error taxonomy for the chat core.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Category names cross the reply envelope boundary, so their string values
// are part of the response contract and must stay stable.
type Category string

const (
	// CategoryValidation: the inbound request itself is unusable
	// (missing or blank message). Conversational, not a transport failure.
	CategoryValidation Category = "ValidationError"

	// CategoryUnresolvedReference: no customer could be determined from
	// the extracted slots.
	CategoryUnresolvedReference Category = "UnresolvedReference"

	// CategoryNotFound: the customer resolved but has no matching
	// account/loan/transaction records.
	CategoryNotFound Category = "NotFound"

	// CategoryCollaboratorFailure: the NLP or data collaborator failed or
	// timed out. Only the category name is surfaced to the caller.
	CategoryCollaboratorFailure Category = "CollaboratorFailure"
)

// ChatError is a structured error carrying a reply category. All errors that
// reach the request boundary are reduced to their category name before they
// cross it.
type ChatError struct {
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("ChatError[%s]: %s", e.Category, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.cause
}

// NewValidationError reports an unusable inbound request.
func NewValidationError(message string) *ChatError {
	return &ChatError{
		Category:  CategoryValidation,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaboratorFailure wraps a failure from the NLP or data collaborator.
func NewCollaboratorFailure(collaborator string, err error) *ChatError {
	return &ChatError{
		Category:  CategoryCollaboratorFailure,
		Message:   fmt.Sprintf("%s collaborator failed", collaborator),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CategoryOf extracts the reply category from err, defaulting to
// CollaboratorFailure for anything untyped that escaped to the boundary.
func CategoryOf(err error) Category {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryCollaboratorFailure
}
