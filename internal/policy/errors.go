package policy

import (
	"errors"
	"fmt"
)

// UnauthorizedMessage is the only text a client ever sees for a denial. It
// never says which check failed.
const UnauthorizedMessage = "This action is unauthorized."

// UnauthorizedError is returned for every Deny decision. The internal reason
// is kept for logging only.
type UnauthorizedError struct {
	internal  string
	principal Principal
	action    Action
	resource  Resource
}

func deny(p Principal, action Action, res Resource, format string, args ...interface{}) *UnauthorizedError {
	return &UnauthorizedError{
		internal:  fmt.Sprintf(format, args...),
		principal: p,
		action:    action,
		resource:  res,
	}
}

func (e *UnauthorizedError) Error() string {
	return UnauthorizedMessage
}

// Internal returns the debugging reason; never send it to clients.
func (e *UnauthorizedError) Internal() string {
	return e.internal
}

// Action returns the denied action.
func (e *UnauthorizedError) Action() Action { return e.action }

// Resource returns the resource the action targeted.
func (e *UnauthorizedError) Resource() Resource { return e.resource }

// Principal returns the actor that was denied.
func (e *UnauthorizedError) Principal() Principal { return e.principal }

// IsUnauthorized is a convenience for errors.As(err, *UnauthorizedError).
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
