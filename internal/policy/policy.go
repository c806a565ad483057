// Package policy decides who may do what to a work item.
//
// Permissions are a flat table of role -> action -> scope. A role gets
// exactly the actions listed for it; anything absent is denied. Roles do not
// inherit from one another, so adding a role means adding one table entry.
package policy

import "github.com/baiirun/worktrack/internal/model"

type Action string

const (
	ActionAssign          Action = "assign"
	ActionViewAll         Action = "viewAll"
	ActionViewOwn         Action = "viewOwn"
	ActionUpdateAnyStatus Action = "updateAnyStatus"
	ActionUpdateOwnStatus Action = "updateOwnStatus"
	ActionViewReports     Action = "viewReports"
)

var Actions = []Action{
	ActionAssign,
	ActionViewAll,
	ActionViewOwn,
	ActionUpdateAnyStatus,
	ActionUpdateOwnStatus,
	ActionViewReports,
}

// Scope limits a granted action to a subset of items.
type Scope int

const (
	ScopeAny    Scope = iota + 1 // every item
	ScopeOwn                     // items assigned to the caller
	ScopeOthers                  // items assigned to someone else
)

var permissions = map[model.Role]map[Action]Scope{
	model.RoleAdmin: {
		ActionAssign:          ScopeAny,
		ActionViewAll:         ScopeAny,
		ActionUpdateAnyStatus: ScopeAny,
		ActionViewReports:     ScopeAny,
	},
	// user1 moves its own items along the guided path and may set any
	// status on everyone else's.
	model.RoleUser1: {
		ActionAssign:          ScopeAny,
		ActionViewAll:         ScopeAny,
		ActionUpdateOwnStatus: ScopeOwn,
		ActionUpdateAnyStatus: ScopeOthers,
	},
	model.RoleUser2: {
		ActionViewOwn:         ScopeOwn,
		ActionUpdateOwnStatus: ScopeOwn,
	},
	model.RoleUser3: {
		ActionViewOwn:         ScopeOwn,
		ActionUpdateOwnStatus: ScopeOwn,
	},
}

// Allowed reports whether role holds action for at least some items.
func Allowed(role model.Role, action Action) bool {
	_, ok := permissions[role][action]
	return ok
}

// CanPerform reports whether the session may perform action. When item is
// non-nil the grant's scope is checked against the item's assignee.
func CanPerform(sess model.Session, action Action, item *model.WorkItem) bool {
	scope, ok := permissions[sess.Role][action]
	if !ok {
		return false
	}
	if item == nil {
		return true
	}
	own := item.AssignedTo == sess.Username
	switch scope {
	case ScopeAny:
		return true
	case ScopeOwn:
		return own
	case ScopeOthers:
		return !own
	default:
		return false
	}
}

// CanView reports whether item is visible to the session.
func CanView(sess model.Session, item *model.WorkItem) bool {
	return CanPerform(sess, ActionViewAll, item) || CanPerform(sess, ActionViewOwn, item)
}

// VisibleItems returns the items role may see, in their original order.
// viewAll yields the whole collection; viewOwn yields items assigned to
// username; a role with neither sees nothing.
func VisibleItems(role model.Role, username string, items []model.WorkItem) []model.WorkItem {
	sess := model.Session{Username: username, Role: role}
	visible := make([]model.WorkItem, 0, len(items))
	for i := range items {
		if CanView(sess, &items[i]) {
			visible = append(visible, items[i])
		}
	}
	return visible
}

// FilterStatus keeps items whose status is status. An empty status keeps all.
func FilterStatus(items []model.WorkItem, status model.Status) []model.WorkItem {
	if status == "" {
		return items
	}
	filtered := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		if item.Status == status {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Granted returns the actions granted to role, in canonical order.
func Granted(role model.Role) []Action {
	var granted []Action
	for _, a := range Actions {
		if Allowed(role, a) {
			granted = append(granted, a)
		}
	}
	return granted
}
