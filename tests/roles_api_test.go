package tests

import (
	"regexp"
	"testing"

	"github.com/parityhq/parity/client"
	"github.com/parityhq/parity/fixtures"
	"github.com/parityhq/parity/helpers"
	"github.com/parityhq/parity/match"
	"github.com/parityhq/parity/must"
	"github.com/parityhq/parity/runtime"
)

func TestRoleLifecycle(t *testing.T) {
	for _, flavor := range []string{runtime.Legacy, runtime.Rewrite} {
		t.Run(flavor, func(t *testing.T) {
			deployment := helpers.Deploy(t, flavor)
			defer deployment.Destroy()
			admin := deployment.Admin
			name := fixtures.UniqueName("role")

			t.Run("create", func(t *testing.T) {
				res := admin.Do(t, "POST", deployment.OrgPath("roles"),
					client.WithRawBody(fixtures.RoleBody(name, "suite role", "recipe[ntp]", "recipe[apache2]")))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 201,
					BodyExact: map[string]any{
						"uri": regexp.MustCompile(`/roles/parity-role-`),
					},
				})
			})

			t.Run("fetch", func(t *testing.T) {
				res := admin.Do(t, "GET", deployment.OrgPath("roles", name))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 200,
					Body: map[string]any{
						"name":        name,
						"description": "suite role",
						"json_class":  "Chef::Role",
						"chef_type":   "role",
						"run_list":    []any{"recipe[apache2]", "recipe[ntp]"},
					},
				})
			})

			t.Run("recreate conflicts", func(t *testing.T) {
				res := admin.Do(t, "POST", deployment.OrgPath("roles"),
					client.WithRawBody(fixtures.RoleBody(name, "suite role")))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 409,
					BodyExact: map[string]any{
						"error": []any{"Role already exists"},
					},
				})
			})

			t.Run("delete", func(t *testing.T) {
				res := admin.Do(t, "DELETE", deployment.OrgPath("roles", name))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 200,
					Body:       map[string]any{"name": name},
				})

				res = admin.Do(t, "GET", deployment.OrgPath("roles", name))
				must.MatchResponse(t, res, runtime.Select(
					match.ExpectedResponse{
						StatusCode: 404,
						Body: map[string]any{
							"error": regexp.MustCompile(`Could not load role`),
						},
					},
					match.ExpectedResponse{
						StatusCode: 404,
						BodyExact: map[string]any{
							"error": []any{"not found"},
						},
					},
				))
			})
		})
	}
}
