package domain

// ActorRole identifies who triggers a mutation.
type ActorRole string

const (
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleCustomer ActorRole = "anonymous-customer"
)

// Actor is the caller as resolved by the auth collaborator.
type Actor struct {
	Role      ActorRole
	SubjectID string
}

// AdminActor builds an operator actor.
func AdminActor(subjectID string) Actor {
	return Actor{Role: ActorRoleAdmin, SubjectID: subjectID}
}

// CustomerActor builds an unauthenticated customer actor.
func CustomerActor() Actor {
	return Actor{Role: ActorRoleCustomer}
}

// IsAdmin reports whether the actor holds the operator role.
func (a Actor) IsAdmin() bool {
	return a.Role == ActorRoleAdmin
}
