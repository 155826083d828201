package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMatcherFailure classifies a rejected scan.
	ErrMatcherFailure = errors.New("matcher failure")
	// ErrNoFocusDocument means single-document mode had no eligible document.
	ErrNoFocusDocument = errors.New("no focus document")
	// ErrWriteFailure classifies a failed document write.
	ErrWriteFailure = errors.New("write failure")
	// ErrOverlappingEdits means two edits of one document cover the same bytes.
	ErrOverlappingEdits = errors.New("overlapping edits")
	// ErrStaleEdit means an edit's original text is not at its position.
	ErrStaleEdit = errors.New("stale edit")
	// ErrAlreadyApplied is returned when a change operation is applied twice.
	ErrAlreadyApplied = errors.New("change operation already applied")
	// ErrInvalidTransition is returned for an action not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)

// MatcherError wraps the error returned by the matching engine.
type MatcherError struct {
	Mode string // "corpus" or "single"
	Err  error
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("matcher (%s): %v", e.Mode, e.Err)
}

func (e *MatcherError) Unwrap() []error { return []error{ErrMatcherFailure, e.Err} }

// Notice is a user-visible condition that does not move the workflow.
type Notice struct {
	Err     error
	Message string
}

func (n *Notice) Error() string { return n.Message }

func (n *Notice) Unwrap() error { return n.Err }

// OverlapError reports two edits of one document whose spans intersect.
type OverlapError struct {
	DocumentID string
	First      Edit
	Second     Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: edit at %d (%q) overlaps edit at %d (%q)",
		e.DocumentID, e.Second.Position, e.Second.OriginalText, e.First.Position, e.First.OriginalText)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingEdits }

// WriteError reports a failed write of one document.
type WriteError struct {
	DocumentID string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.DocumentID, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailure, e.Err} }
