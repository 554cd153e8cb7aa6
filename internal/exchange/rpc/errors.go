package rpc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntityNotFound: the owning service confirmed the entity does not exist.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrUpstreamUnavailable: the owning service could not give an answer.
	ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

	ErrUpstreamStatus    = errors.New("upstream returned error status")
	ErrUnsuccessful      = errors.New("upstream envelope reported failure")
	ErrMalformedEnvelope = errors.New("malformed upstream envelope")
	ErrUnknownKind       = errors.New("unknown entity kind")
)

// RefError is returned by Guard.RequireExists. It matches either
// ErrEntityNotFound or ErrUpstreamUnavailable with errors.Is.
type RefError struct {
	Ref    Ref
	Kind   error
	Reason error
}

func (e *RefError) Error() string {
	if errors.Is(e.Kind, ErrEntityNotFound) {
		return fmt.Sprintf("%s not found with id: %d", e.Ref.Kind.Entity(), e.Ref.ID)
	}

	return fmt.Sprintf("%s service is temporarily unavailable, could not verify %s id %d",
		strings.ToLower(e.Ref.Kind.Entity()), strings.ToLower(e.Ref.Kind.Entity()), e.Ref.ID)
}

func (e *RefError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}
	return errs
}
