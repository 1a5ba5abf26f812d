package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a storage failure so callers can tell an unreachable
// backend from a timed-out call from a rejected row.
type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindTimeout    ErrorKind = "timeout"
	KindConstraint ErrorKind = "constraint"
)

// StorageError wraps a backend failure with its classification and the
// store operation that hit it. It is never collapsed into an empty result.
type StorageError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// wrap classifies err and tags it with the operation name.
func wrap(op string, err error) *StorageError {
	return &StorageError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE class 23 = integrity constraint violation.
		if strings.HasPrefix(pgErr.Code, "23") {
			return KindConstraint
		}
	}

	return KindConnection
}
