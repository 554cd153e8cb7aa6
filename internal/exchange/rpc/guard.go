package rpc

import "context"

type ExistenceChecker interface {
	CheckExists(ctx context.Context, ref Ref) Result
}

// Guard applies one policy to every write path that references an entity
// owned elsewhere: Absent rejects the write as a client error, Indeterminate
// rejects it as a retryable dependency failure.
type Guard struct {
	checker ExistenceChecker
}

func NewGuard(checker ExistenceChecker) *Guard {
	return &Guard{checker: checker}
}

func (g *Guard) RequireExists(ctx context.Context, ref Ref) error {
	res := g.checker.CheckExists(ctx, ref)

	switch res.Status {
	case Present:
		return nil
	case Absent:
		return &RefError{Ref: ref, Kind: ErrEntityNotFound}
	default:
		return &RefError{Ref: ref, Kind: ErrUpstreamUnavailable, Reason: res.Reason}
	}
}
