package provenance

import "errors"

// Hard-rejected invariants. Creation calls fail with these before any row is
// written, so a wrapping transaction has nothing to partially undo.
var (
	// ErrNoGeneratingActivity rejects an entity without a recorded cause.
	ErrNoGeneratingActivity = errors.New("entity requires a generating activity")

	// ErrInvalidCharSpan rejects a character span where only one bound is
	// set or start exceeds end.
	ErrInvalidCharSpan = errors.New("invalid character span")

	// ErrInvalidRelationshipType rejects a relation kind outside the nine
	// recognized PROV-O kinds.
	ErrInvalidRelationshipType = errors.New("invalid relationship type")

	// ErrInvalidRole rejects a subject/object type outside
	// entity/activity/agent.
	ErrInvalidRole = errors.New("invalid relationship role")

	// ErrInvalidAgentType rejects an agent type outside
	// Person/Organization/SoftwareAgent.
	ErrInvalidAgentType = errors.New("invalid agent type")

	// ErrInvalidStatus rejects a terminal activity status other than
	// completed or failed.
	ErrInvalidStatus = errors.New("invalid activity status")
)
