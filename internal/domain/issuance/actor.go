package issuance

import "strings"

// Role is the workflow role carried by an authenticated user
type Role string

const (
	RoleRequester Role = "Requester"
	RoleQA        Role = "QA"
	RoleAdmin     Role = "Admin"
)

// ParseRole matches a role name case-insensitively. Unknown names map to Requester.
func ParseRole(value string) Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "qa":
		return RoleQA
	case "admin":
		return RoleAdmin
	default:
		return RoleRequester
	}
}

// CanApprove reports whether the role may issue or reject requests
func (r Role) CanApprove() bool {
	return r == RoleQA || r == RoleAdmin
}

// Actor identifies the user performing a workflow action
type Actor struct {
	Username string
	Role     Role
}

// NewActor builds an actor from raw claim values
func NewActor(username, role string) Actor {
	return Actor{
		Username: strings.TrimSpace(username),
		Role:     ParseRole(role),
	}
}

// Validate checks that the actor is identified
func (a Actor) Validate() error {
	if a.Username == "" {
		return NewValidationError("actor username is required")
	}
	return nil
}
