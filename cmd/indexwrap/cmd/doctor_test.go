package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_ReportsUnusedRoutes(t *testing.T) {
	// Given: a project whose Person.age route has no index rule
	dir := newProject(t, testProjectConfig)
	mustRun(t, dir, "", "schema", "create-index", "Person", "email")

	// When: running doctor as JSON
	out := mustRun(t, dir, "", "doctor", "--json")

	// Then: the unused route is a warning, not a failure
	report := decodeJSON[struct {
		Status string `json:"status"`
		Checks []struct {
			Name    string `json:"name"`
			Status  string `json:"status"`
			Details string `json:"details"`
		} `json:"checks"`
	}](t, out)
	assert.Equal(t, "ready_with_warnings", report.Status)

	var routes []string
	for _, c := range report.Checks {
		if c.Name == "routes" {
			routes = append(routes, c.Status+" "+c.Details)
		}
	}
	assert.Equal(t, []string{"warn index-wrapper.Person.age"}, routes)
}

func TestDoctorCmd_InvalidConfigFails(t *testing.T) {
	dir := newProject(t, "indexes:\n  index-wrapper.A.b: \"name:x,version\"\n")

	out, err := run(t, dir, "", "doctor")

	require.Error(t, err)
	assert.Contains(t, out, "[FAIL] config")
}
