package policy

import "errors"

var (
	// ErrUnauthenticated indicates no active identity could be resolved for the caller.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbiddenRole indicates the caller's role may not invoke the action at all.
	ErrForbiddenRole = errors.New("role not permitted for this action")
	// ErrForbiddenOwnership indicates the role is permitted but the caller does not own the target.
	ErrForbiddenOwnership = errors.New("not permitted on this resource")
	// ErrUnknownKind indicates an entity kind with no registered rules.
	ErrUnknownKind = errors.New("unknown entity kind")
)
