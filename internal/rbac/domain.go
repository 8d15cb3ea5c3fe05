package rbac

// Role is one of a closed set assigned server-side; the client treats it as
// immutable input.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleAgent   Role = "Agent"
)

// Permission names a capability. Each permission maps to a fixed role set in
// the table below; there are no per-user exceptions.
type Permission string

const (
	// User management
	PermManageUsers Permission = "manage_users"
	PermViewUsers   Permission = "view_users"

	// Agent management
	PermManageAgents  Permission = "manage_agents"
	PermViewAllAgents Permission = "view_all_agents"

	// Call management
	PermUploadCalls  Permission = "upload_calls"
	PermViewAllCalls Permission = "view_all_calls"
	PermViewOwnCalls Permission = "view_own_calls"
	PermDeleteCalls  Permission = "delete_calls"

	// Reports & analytics
	PermExportReports Permission = "export_reports"
	PermViewDashboard Permission = "view_dashboard"

	// Settings
	PermManageSettings Permission = "manage_settings"
	PermViewAuditLogs  Permission = "view_audit_logs"
)

// permissions lists every declared permission constant. VerifyTable checks it
// against allowedRoles at startup so a new constant cannot silently fail
// closed forever.
var permissions = []Permission{
	PermManageUsers,
	PermViewUsers,
	PermManageAgents,
	PermViewAllAgents,
	PermUploadCalls,
	PermViewAllCalls,
	PermViewOwnCalls,
	PermDeleteCalls,
	PermExportReports,
	PermViewDashboard,
	PermManageSettings,
	PermViewAuditLogs,
}

// allowedRoles is the fixed permission table. It is data, not behavior: a
// permission missing from this map is denied for every role.
var allowedRoles = map[Permission][]Role{
	PermManageUsers:    {RoleAdmin},
	PermViewUsers:      {RoleAdmin},
	PermDeleteCalls:    {RoleAdmin},
	PermManageSettings: {RoleAdmin},
	PermViewAuditLogs:  {RoleAdmin},

	PermManageAgents:  {RoleAdmin, RoleManager},
	PermViewAllAgents: {RoleAdmin, RoleManager},
	PermUploadCalls:   {RoleAdmin, RoleManager},
	PermViewAllCalls:  {RoleAdmin, RoleManager},
	PermExportReports: {RoleAdmin, RoleManager},

	PermViewDashboard: {RoleAdmin, RoleManager, RoleAgent},

	PermViewOwnCalls: {RoleAgent},
}

// AllPermissions returns every declared permission.
func AllPermissions() []Permission {
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

// AllowedRoles returns the role set for a permission, nil when unknown.
func AllowedRoles(perm Permission) []Role {
	roles, ok := allowedRoles[perm]
	if !ok {
		return nil
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}
