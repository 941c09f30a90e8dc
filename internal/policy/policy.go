// Package policy implements the access-control decision for snippets.
//
// WHY A SEPARATE PACKAGE?
// The permission rule ("anyone may read, only the owner may write") is a
// per-object decision, not an HTTP concern and not a storage concern. Putting
// it behind an interface and injecting it into the service layer means:
//   - the rule is stated once, in one file, instead of being scattered
//     across handlers
//   - the service consults it BEFORE any repository mutation, so a deny can
//     never leave side effects behind
//   - tests can swap in a permissive or paranoid policy without touching
//     the service code
//
// The decision function returns nil for allow and an apperror value for
// deny, so the HTTP layer's existing error mapping distinguishes "you are
// not logged in" (401) from "this is not yours" (403) for free.
package policy

import (
	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/model"
)

// Operation classifies what the actor is trying to do.
type Operation string

const (
	// OpRead covers list, retrieve, and fetching the highlighted HTML.
	OpRead Operation = "read"
	// OpCreate covers creating a new snippet (no target exists yet).
	OpCreate Operation = "create"
	// OpMutate covers update and delete of an existing snippet.
	OpMutate Operation = "mutate"
)

// Authorizer decides whether an actor may perform an operation on a snippet.
//
// actorID is empty for anonymous requests. snip is nil for operations that
// have no target yet (create). A nil return allows the operation; a non-nil
// return denies it and is surfaced to the client unchanged.
type Authorizer interface {
	Authorize(actorID string, op Operation, snip *model.Snippet) error
}

// OwnerOnly is the production policy:
//   - reads are public, authenticated or not
//   - create requires any authenticated actor
//   - update/delete require the actor to be the snippet's owner
type OwnerOnly struct{}

// compile-time check that OwnerOnly implements Authorizer
var _ Authorizer = OwnerOnly{}

// NewOwnerOnly creates the owner-only policy.
func NewOwnerOnly() OwnerOnly {
	return OwnerOnly{}
}

// Authorize implements Authorizer.
func (OwnerOnly) Authorize(actorID string, op Operation, snip *model.Snippet) error {
	switch op {
	case OpRead:
		// Read access is public — no identity required.
		return nil

	case OpCreate:
		if actorID == "" {
			return apperror.Unauthorized("authentication required to create snippets")
		}
		return nil

	case OpMutate:
		if actorID == "" {
			return apperror.Unauthorized("authentication required to modify snippets")
		}
		if snip == nil || snip.OwnerID != actorID {
			return apperror.Forbidden("only the snippet's owner may modify it")
		}
		return nil

	default:
		// Unknown operations are denied, not allowed — fail closed.
		return apperror.Forbidden("unknown operation")
	}
}
