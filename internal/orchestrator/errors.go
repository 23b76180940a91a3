package orchestrator

import (
	"errors"
	"fmt"
)

// Kind is the machine-checkable category of an orchestrator failure.
type Kind string

const (
	// KindInvalidInput means the request itself was unusable (empty input).
	KindInvalidInput Kind = "invalid_input"

	// KindFetch means the link could not be fetched or yielded no text.
	KindFetch Kind = "fetch"

	// KindClassifier means the external model call failed or returned unusable output.
	KindClassifier Kind = "classifier"

	// KindStore means a content store or tag index call failed. The wrapped
	// error is a *catalog.StoreError, so catalog.IsBackend and catalog.IsCorrupt
	// still apply.
	KindStore Kind = "store"

	// KindPartialWrite means one of the two stores was updated and the other
	// was not. The operation's primary effect happened; only the tag index lags.
	KindPartialWrite Kind = "partial_write"
)

// Error is returned by every Engine operation.
type Error struct {
	Kind Kind
	Op   string // "classify", "delete", "reindex"
	ID   string // record ID, when one exists
	Err  error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s (content %s): %v", e.Op, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind returns true if err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return "", false
}

// IsPartialWrite is shorthand for IsKind(err, KindPartialWrite).
func IsPartialWrite(err error) bool {
	return IsKind(err, KindPartialWrite)
}

func newError(kind Kind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}
