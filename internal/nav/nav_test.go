package nav_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calleval/calleval/internal/nav"
	"github.com/calleval/calleval/internal/session"
	_ "github.com/calleval/calleval/testing"
)

func titles(dests []nav.Destination) []string {
	out := make([]string, len(dests))
	for i, d := range dests {
		out[i] = d.Title
	}
	return out
}

func record(role string) *session.Record {
	return &session.Record{Token: "tok", User: session.User{ID: "3", Role: role}}
}

func TestAdminSeesEverythingInOrder(t *testing.T) {
	got := titles(nav.Visible(record("Admin")))
	assert.Equal(t, []string{"Dashboard", "Call Evaluations", "Upload", "Agent", "Reports", "Settings"}, got)
}

func TestManagerSeesAllButSettings(t *testing.T) {
	got := titles(nav.Visible(record("Manager")))
	assert.Equal(t, []string{"Dashboard", "Call Evaluations", "Upload", "Agent", "Reports"}, got)
}

func TestAgentSeesBaseMenu(t *testing.T) {
	got := titles(nav.Visible(record("Agent")))
	assert.Equal(t, []string{"Dashboard", "Call Evaluations"}, got)
}

func TestNilRecordSeesUnrestrictedOnly(t *testing.T) {
	got := titles(nav.Visible(nil))
	assert.Equal(t, []string{"Dashboard", "Call Evaluations"}, got)
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	got := titles(nav.Visible(record("Supervisor")))
	assert.Equal(t, []string{"Dashboard", "Call Evaluations"}, got)
}

func TestDestinationsCopies(t *testing.T) {
	dests := nav.Destinations()
	require.NotEmpty(t, dests)
	dests[0].Title = "Mutated"
	assert.Equal(t, "Dashboard", nav.Destinations()[0].Title)
}
