// Package rbac is the permission engine: pure, stateless checks that map a
// session record's role onto the fixed permission table. Every check fails
// closed; a missing session, an unknown role, or an unrecognized permission
// name always resolves to denied.
package rbac

import (
	"fmt"

	"github.com/calleval/calleval/internal/session"
)

// HasRole reports whether the record's user holds exactly the given role.
func HasRole(rec *session.Record, role Role) bool {
	if rec == nil || rec.User.Role == "" {
		return false
	}
	return Role(rec.User.Role) == role
}

// HasAnyRole reports whether the record's user holds one of the given roles.
func HasAnyRole(rec *session.Record, roles ...Role) bool {
	if rec == nil || rec.User.Role == "" {
		return false
	}
	current := Role(rec.User.Role)
	for _, role := range roles {
		if current == role {
			return true
		}
	}
	return false
}

// HasPermission looks up the permission's allowed role set and delegates to
// HasAnyRole. Unknown permissions resolve to false.
func HasPermission(rec *session.Record, perm Permission) bool {
	roles, ok := allowedRoles[perm]
	if !ok {
		return false
	}
	return HasAnyRole(rec, roles...)
}

// IsAdmin reports whether the current user is an Admin.
func IsAdmin(rec *session.Record) bool {
	return HasRole(rec, RoleAdmin)
}

// IsAdminOrManager reports whether the current user is an Admin or Manager.
func IsAdminOrManager(rec *session.Record) bool {
	return HasAnyRole(rec, RoleAdmin, RoleManager)
}

// OwnsResource reports whether the current user may act on a resource owned
// by ownerID. Admin and Manager have full access regardless of ownership;
// everyone else only matches their own user ID.
func OwnsResource(rec *session.Record, ownerID string) bool {
	if rec == nil {
		return false
	}
	if IsAdminOrManager(rec) {
		return true
	}
	return ownerID != "" && rec.User.ID == ownerID
}

// VerifyTable asserts that every declared permission has a table entry and
// the table carries no strays. Run at startup: the default-deny fallthrough
// is safe, but a permission constant added without a table entry would
// otherwise deny silently forever.
func VerifyTable() error {
	declared := make(map[Permission]struct{}, len(permissions))
	for _, perm := range permissions {
		declared[perm] = struct{}{}
		roles, ok := allowedRoles[perm]
		if !ok {
			return fmt.Errorf("rbac: permission %q has no table entry", perm)
		}
		if len(roles) == 0 {
			return fmt.Errorf("rbac: permission %q allows no roles", perm)
		}
	}
	for perm := range allowedRoles {
		if _, ok := declared[perm]; !ok {
			return fmt.Errorf("rbac: table entry %q has no declared constant", perm)
		}
	}
	return nil
}
