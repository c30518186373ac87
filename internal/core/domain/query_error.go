package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed query.
type ErrorKind string

const (
	// ErrorKindResolution means the metadata snapshot could not be obtained.
	ErrorKindResolution ErrorKind = "resolution"
	// ErrorKindMissingData means the snapshot lacks data the query needs.
	ErrorKindMissingData ErrorKind = "missing-data"
	// ErrorKindSerialization means the projection could not be encoded.
	ErrorKindSerialization ErrorKind = "serialization"
)

// QueryError is the failure result of a single query. It never affects cache state.
type QueryError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewResolutionError reports that cargo metadata could not be obtained.
func NewResolutionError(err error) *QueryError {
	return &QueryError{
		Kind:    ErrorKindResolution,
		Message: fmt.Sprintf("failed to get cargo metadata: %v", err),
		Err:     err,
	}
}

// NewMissingRootError reports a query that needs a root package on a virtual workspace.
func NewMissingRootError() *QueryError {
	return &QueryError{
		Kind:    ErrorKindMissingData,
		Message: ErrNoRootPackage.Error(),
		Err:     ErrNoRootPackage,
	}
}

// NewSerializationError reports that the projection named by what could not be encoded.
func NewSerializationError(what string, err error) *QueryError {
	return &QueryError{
		Kind:    ErrorKindSerialization,
		Message: fmt.Sprintf("failed to serialize %s: %v", what, err),
		Err:     err,
	}
}

// KindOf returns the kind of the first QueryError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	return "", false
}
