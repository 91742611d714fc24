package entity

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors forming the pipeline error taxonomy.
// Stages wrap one of these with fmt.Errorf("...: %w", ...) so callers can classify
// failures with errors.Is regardless of the underlying cause.
var (
	// ErrFetch indicates the feed was unreachable, timed out or could not be parsed.
	ErrFetch = errors.New("feed fetch failed")

	// ErrInsufficientItems indicates the feed contained zero entries.
	ErrInsufficientItems = errors.New("feed contained no items")

	// ErrCuration indicates the text-generation capability failed or returned no content.
	ErrCuration = errors.New("curation failed")

	// ErrInvalidRecipient indicates the recipient address is syntactically invalid.
	ErrInvalidRecipient = errors.New("invalid recipient address")

	// ErrDispatch indicates the email transport kept failing after all attempts.
	ErrDispatch = errors.New("dispatch failed")

	// ErrAuthentication indicates the transport rejected the sender credentials.
	// It is never retried.
	ErrAuthentication = errors.New("transport authentication failed")

	// ErrRunAborted indicates the run deadline expired or the run was canceled between stages.
	ErrRunAborted = errors.New("run aborted")

	// ErrInvariant indicates a stage produced an artifact violating its own contract.
	ErrInvariant = errors.New("internal invariant violated")
)

// ErrorKind names the class of a pipeline failure.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindFetch             ErrorKind = "FetchError"
	KindInsufficientItems ErrorKind = "InsufficientItemsError"
	KindCuration          ErrorKind = "CurationError"
	KindInvalidRecipient  ErrorKind = "InvalidRecipientError"
	KindDispatch          ErrorKind = "DispatchError"
	KindAuthentication    ErrorKind = "AuthenticationError"
	KindAborted           ErrorKind = "RunAbortedError"
	KindInvariant         ErrorKind = "InvariantError"
	KindUnknown           ErrorKind = "UnknownError"
)

// kindTable is checked in order; authentication must win over dispatch.
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAuthentication, KindAuthentication},
	{ErrInvalidRecipient, KindInvalidRecipient},
	{ErrInsufficientItems, KindInsufficientItems},
	{ErrFetch, KindFetch},
	{ErrCuration, KindCuration},
	{ErrDispatch, KindDispatch},
	{ErrInvariant, KindInvariant},
	{ErrRunAborted, KindAborted},
}

// KindOf classifies err into an ErrorKind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindAborted
	}
	return KindUnknown
}

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
