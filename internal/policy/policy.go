// Package policy decides whether a principal may perform an action on a
// resource. Every decision is a pure function of the principal, the action,
// the resource and, for group-scoped resources, the group's ownership as
// reported by a GroupLookup.
package policy

import (
	"context"

	"groupmanager/internal/model"
)

// Action is the closed set of verbs the evaluator understands.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// ResourceType names a kind of resource.
type ResourceType string

const (
	ResourceUsers      ResourceType = "users"
	ResourceGroups     ResourceType = "groups"
	ResourceMembers    ResourceType = "members"
	ResourceAuditLogs  ResourceType = "audit_logs"
	ResourceStatistics ResourceType = "statistics"
)

// Resource is a (type, id) reference. ID is empty for collection-level
// actions. For members, ID is the id of the group the members belong to.
type Resource struct {
	Type ResourceType
	ID   string
}

func Users(id string) Resource {
	return Resource{Type: ResourceUsers, ID: id}
}

func Groups(id string) Resource {
	return Resource{Type: ResourceGroups, ID: id}
}

func MembersOf(groupID string) Resource {
	return Resource{Type: ResourceMembers, ID: groupID}
}

func AuditLogs() Resource {
	return Resource{Type: ResourceAuditLogs}
}

func Statistics() Resource {
	return Resource{Type: ResourceStatistics}
}

// Principal is the authenticated actor, passed explicitly on every call.
type Principal struct {
	ID   string
	Role model.Role
}

// RoleOf returns the principal's role, collapsing anything outside the
// enumeration to RoleUnknown.
func RoleOf(p Principal) model.Role {
	if !p.Role.Valid() {
		return model.RoleUnknown
	}
	return p.Role
}

// GroupOwnership is what the evaluator needs to know about a group.
// RepresentativeUserID is empty when the representative is not a registered
// user or the group has none.
type GroupOwnership struct {
	CreatorUserID        string
	RepresentativeUserID string
}

// GroupLookup resolves ownership of a group. It must return an
// *apperror.NotFoundError when the group does not exist.
type GroupLookup interface {
	GroupOwnership(ctx context.Context, groupID string) (GroupOwnership, error)
}

// Evaluator applies the authorization rules.
type Evaluator struct {
	groups GroupLookup
}

func NewEvaluator(groups GroupLookup) *Evaluator {
	return &Evaluator{groups: groups}
}

// Authorize returns nil when the action is allowed, an *UnauthorizedError
// when denied, and the lookup's error unchanged when the target group cannot
// be resolved.
func (e *Evaluator) Authorize(ctx context.Context, p Principal, action Action, res Resource) error {
	switch res.Type {
	case ResourceUsers:
		return e.authorizeUsers(p, action, res)
	case ResourceGroups:
		return e.authorizeGroups(ctx, p, action, res)
	case ResourceMembers:
		return e.authorizeMembers(ctx, p, action, res)
	case ResourceAuditLogs:
		if action == ActionView && RoleOf(p) == model.RoleAdmin {
			return nil
		}
		return deny(p, action, res, "audit logs are admin only")
	case ResourceStatistics:
		role := RoleOf(p)
		if action == ActionView && (isAdmin(role) || isManager(role)) {
			return nil
		}
		return deny(p, action, res, "role %s cannot view statistics", role)
	default:
		return deny(p, action, res, "no rule for resource type %q", res.Type)
	}
}

func (e *Evaluator) authorizeUsers(p Principal, action Action, res Resource) error {
	role := RoleOf(p)
	switch action {
	case ActionView:
		if isAdmin(role) || isManager(role) || isRepresentative(role) {
			return nil
		}
		return deny(p, action, res, "role %s cannot list users", role)
	case ActionCreate:
		if isAdmin(role) {
			return nil
		}
		return deny(p, action, res, "role %s cannot create users", role)
	case ActionUpdate:
		// Self-service only: no role updates another user's record.
		if !role.Valid() {
			return deny(p, action, res, "unrecognised role")
		}
		if p.ID == "" || p.ID != res.ID {
			return deny(p, action, res, "principal %s is not user %s", p.ID, res.ID)
		}
		return nil
	case ActionDelete, ActionRestore:
		if isAdmin(role) {
			return nil
		}
		return deny(p, action, res, "role %s cannot manage users", role)
	default:
		return deny(p, action, res, "no rule for users/%s", action)
	}
}

func (e *Evaluator) authorizeGroups(ctx context.Context, p Principal, action Action, res Resource) error {
	role := RoleOf(p)
	switch action {
	case ActionView:
		if role.Valid() {
			return nil
		}
		return deny(p, action, res, "unrecognised role")
	case ActionCreate:
		if isManager(role) {
			return nil
		}
		return deny(p, action, res, "role %s cannot create groups", role)
	case ActionUpdate, ActionDelete:
		if !isManager(role) {
			return deny(p, action, res, "role %s cannot change groups", role)
		}
		owner, err := e.groups.GroupOwnership(ctx, res.ID)
		if err != nil {
			return err
		}
		if owner.CreatorUserID == "" || owner.CreatorUserID != p.ID {
			return deny(p, action, res, "principal %s did not create group %s", p.ID, res.ID)
		}
		return nil
	default:
		return deny(p, action, res, "no rule for groups/%s", action)
	}
}

func (e *Evaluator) authorizeMembers(ctx context.Context, p Principal, action Action, res Resource) error {
	role := RoleOf(p)
	switch action {
	case ActionView:
		if role.Valid() {
			return nil
		}
		return deny(p, action, res, "unrecognised role")
	case ActionCreate, ActionUpdate, ActionDelete:
		if !isManager(role) && !isRepresentative(role) {
			return deny(p, action, res, "role %s cannot change members", role)
		}
		owner, err := e.groups.GroupOwnership(ctx, res.ID)
		if err != nil {
			return err
		}
		if isManager(role) && owner.CreatorUserID != "" && owner.CreatorUserID == p.ID {
			return nil
		}
		if isRepresentativeOfGroup(role, p.ID, owner) {
			return nil
		}
		return deny(p, action, res, "principal %s neither created nor represents group %s", p.ID, res.ID)
	default:
		return deny(p, action, res, "no rule for members/%s", action)
	}
}

func isAdmin(r model.Role) bool {
	return r == model.RoleAdmin
}

func isManager(r model.Role) bool {
	return r == model.RoleManager
}

func isRepresentative(r model.Role) bool {
	return r == model.RoleRepresentative
}

func isRepresentativeOfGroup(r model.Role, userID string, owner GroupOwnership) bool {
	return isRepresentative(r) && owner.RepresentativeUserID != "" && owner.RepresentativeUserID == userID
}
