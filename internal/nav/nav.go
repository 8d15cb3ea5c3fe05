// Package nav builds the sidebar menu for the current session. Visibility
// only: entry to each destination is still enforced by the route guard.
package nav

import (
	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/session"
)

// Destination is a navigable path. An empty AllowedRoles set means any
// authenticated session may see it.
type Destination struct {
	Title        string
	Path         string
	Icon         string
	AllowedRoles []rbac.Role
}

// destinations is the full menu in display order.
var destinations = []Destination{
	{Title: "Dashboard", Path: "/", Icon: "layout-dashboard"},
	{Title: "Call Evaluations", Path: "/call_evaluations", Icon: "phone-call"},
	{Title: "Upload", Path: "/upload", Icon: "upload", AllowedRoles: []rbac.Role{rbac.RoleAdmin, rbac.RoleManager}},
	{Title: "Agent", Path: "/agent", Icon: "users", AllowedRoles: []rbac.Role{rbac.RoleAdmin, rbac.RoleManager}},
	{Title: "Reports", Path: "/reports", Icon: "file-text", AllowedRoles: []rbac.Role{rbac.RoleAdmin, rbac.RoleManager}},
	{Title: "Settings", Path: "/settings", Icon: "settings", AllowedRoles: []rbac.Role{rbac.RoleAdmin}},
}

// Destinations returns the full static list in order.
func Destinations() []Destination {
	out := make([]Destination, len(destinations))
	copy(out, destinations)
	return out
}

// Visible filters the menu for the given session record, preserving order.
func Visible(rec *session.Record) []Destination {
	out := make([]Destination, 0, len(destinations))
	for _, d := range destinations {
		if len(d.AllowedRoles) == 0 || rbac.HasAnyRole(rec, d.AllowedRoles...) {
			out = append(out, d)
		}
	}
	return out
}
