package auth

// Action enumerates the operations gated by the authorization engine.
type Action string

const (
	ActionRead       Action = "read"
	ActionList       Action = "list"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionUpdateRole Action = "update_role"
	ActionDelete     Action = "delete"
)

// ResourceKind identifies the kind of resource an access request targets.
type ResourceKind string

const (
	ResourceUser    ResourceKind = "user"
	ResourceProduct ResourceKind = "product"
)

// Resource identifies the target of an access request.
type Resource struct {
	Kind    ResourceKind
	ID      int64
	OwnerID int64
}

// Decision is the engine's answer to an access request. On deny, Field names
// the rejected field where one applies.
type Decision struct {
	Allowed bool
	Field   string
}

// Authorize evaluates the access rules for a requester and a target. It is a
// pure function with no side effects; rules are evaluated first match wins.
// A nil principal (anonymous, or a token whose subject no longer resolves) is
// denied every action here; create-account and login never reach the engine.
func Authorize(p *Principal, action Action, res Resource) Decision {
	if p == nil {
		return Decision{}
	}
	switch res.Kind {
	case ResourceUser:
		return authorizeUser(p, action, res)
	case ResourceProduct:
		return authorizeProduct(p, action, res)
	}
	return Decision{}
}

func authorizeUser(p *Principal, action Action, res Resource) Decision {
	self := p.ID == res.ID
	switch action {
	case ActionList:
		return Decision{Allowed: p.Role.IsAdmin()}
	case ActionRead, ActionUpdate:
		return Decision{Allowed: self || p.Role.IsAdmin()}
	case ActionUpdateRole:
		// No principal may ever change its own role, admin or not.
		if self {
			return Decision{Field: "isAdmin"}
		}
		return Decision{Allowed: p.Role.IsAdmin(), Field: "isAdmin"}
	case ActionDelete:
		if self {
			return Decision{}
		}
		return Decision{Allowed: p.Role.IsAdmin()}
	}
	return Decision{}
}

func authorizeProduct(p *Principal, action Action, res Resource) Decision {
	switch action {
	case ActionRead, ActionList, ActionCreate:
		// Any authenticated principal; the creator becomes the owner.
		return Decision{Allowed: true}
	case ActionUpdate, ActionDelete:
		return Decision{Allowed: p.ID == res.OwnerID || p.Role.IsAdmin()}
	}
	return Decision{}
}
