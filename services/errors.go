package services

import (
	"fmt"

	"TenantHub/blob"
	"TenantHub/store"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindStoreUnavailable
	KindPathConflict
	KindOrphanReference
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindPathConflict:
		return "PathConflict"
	case KindOrphanReference:
		return "OrphanReference"
	case KindNotFound:
		return "NotFound"
	}
	return "Unknown"
}

// Error carries the failure kind callers branch on.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.Errorf(format, args...)}
}

func notFoundError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.Errorf(format, args...)}
}

/*
* Already classified errors pass through
* Missing records become NotFound
* Occupied blob paths become PathConflict
* Everything else is StoreUnavailable
 */
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := KindStoreUnavailable
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, blob.ErrExists):
		kind = KindPathConflict
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func errExhausted(dir, name string) error {
	return errors.Errorf("no free file name for %q in %q", name, dir)
}

func errOccupied(p string) error {
	return errors.Errorf("destination %q is already occupied", p)
}
