package catalog

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a StoreError.
type ErrorKind string

const (
	// KindBackend indicates the backend could not be reached or an I/O call failed.
	KindBackend ErrorKind = "backend"

	// KindCorrupt indicates stored data could not be decoded.
	KindCorrupt ErrorKind = "corrupt"
)

var (
	// ErrBackend matches any StoreError of kind KindBackend via errors.Is.
	ErrBackend = errors.New("storage backend failure")

	// ErrCorrupt matches any StoreError of kind KindCorrupt via errors.Is.
	ErrCorrupt = errors.New("corrupt stored data")
)

// StoreError is returned by every ContentStore and TagIndex implementation.
// Op names the failed operation ("put", "get", "add_tags", ...), Key the record
// ID or tag involved, when there is one.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Key  string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Kind, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBackend) and errors.Is(err, ErrCorrupt) match on kind.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrBackend:
		return e.Kind == KindBackend
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	}
	return false
}

// BackendError wraps err as a KindBackend StoreError.
func BackendError(op, key string, err error) error {
	return &StoreError{Kind: KindBackend, Op: op, Key: key, Err: err}
}

// CorruptError wraps err as a KindCorrupt StoreError.
func CorruptError(op, key string, err error) error {
	return &StoreError{Kind: KindCorrupt, Op: op, Key: key, Err: err}
}

// IsBackend returns true if err is, or wraps, a backend StoreError.
func IsBackend(err error) bool {
	return errors.Is(err, ErrBackend)
}

// IsCorrupt returns true if err is, or wraps, a corrupt-data StoreError.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
