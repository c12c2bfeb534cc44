// Package errs defines the error taxonomy shared by every pipeline stage.
package errs

import "fmt"

// Kind classifies a pipeline error so callers can branch on retryability
// and fatality without string matching.
type Kind string

const (
	KindInputMalformed         Kind = "input_malformed"
	KindBudgetExceededByAtomic Kind = "budget_exceeded_by_atomic"
	KindEmbedBackendUnavailable Kind = "embed_backend_unavailable"
	KindVectorDimensionMismatch Kind = "vector_dimension_mismatch"
	KindSchemaConflict         Kind = "schema_conflict"
	KindCollectionMissing      Kind = "collection_missing"
	KindCacheCorruption        Kind = "cache_corruption"
	KindTransientNetwork       Kind = "transient_network"
	KindPermanentNetwork       Kind = "permanent_network"
)

// Error is the sum type every stage wraps its failures in.
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

// New builds an *Error tagged with the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsRetryable reports whether the error's kind warrants a retry.
// Only transient network and backend-unavailable errors are retryable;
// everything else (including permanent network) is not.
func IsRetryable(err error) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindTransientNetwork, KindEmbedBackendUnavailable:
		return true
	default:
		return false
	}
}

// As walks err's Unwrap chain, like errors.As, and stores the first *Error
// it finds in target. It is kept local so callers of this package don't
// need a second import for the common case.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
