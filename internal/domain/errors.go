// Package domain holds the entities and ports of the e-invoice submission
// engine, free of infrastructure dependencies.
package domain

import "errors"

// Domain sentinel errors (no external dependencies).
var (
	ErrNotFound             = errors.New("resource not found")
	ErrValidation           = errors.New("validation failed")
	ErrSigning              = errors.New("signing material missing or malformed")
	ErrTransient            = errors.New("transient network failure")
	ErrAuthorityRejection   = errors.New("rejected by the authority")
	ErrDuplicateSubmission  = errors.New("submission record already exists for this host invoice")
	ErrInvalidTransition    = errors.New("invalid lifecycle transition")
	ErrReferenceAssigned    = errors.New("invoice already has a reference number")
	ErrConflict             = errors.New("conflict with current state")
	ErrRetriesExhausted     = errors.New("retry attempts exhausted, manual intervention required")
	ErrCancellationDeferred = errors.New("cancellation deferred: remote call in flight")
)
