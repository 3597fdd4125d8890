package tests

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/parityhq/parity/client"
	"github.com/parityhq/parity/fixtures"
	"github.com/parityhq/parity/helpers"
	"github.com/parityhq/parity/match"
	"github.com/parityhq/parity/must"
	"github.com/parityhq/parity/runtime"
)

func TestClientLifecycle(t *testing.T) {
	for _, flavor := range []string{runtime.Legacy, runtime.Rewrite} {
		t.Run(flavor, func(t *testing.T) {
			deployment := helpers.Deploy(t, flavor)
			defer deployment.Destroy()
			admin := deployment.Admin
			name := fixtures.UniqueName("client")

			t.Run("create returns the new object URI", func(t *testing.T) {
				res := admin.Do(t, "POST", deployment.OrgPath("clients"),
					client.WithRawBody(fixtures.ClientBody(name)))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 201,
					BodyExact: map[string]any{
						"uri": regexp.MustCompile(`^http.*/clients/parity-client-`),
					},
				})
			})

			t.Run("fetch returns the full object", func(t *testing.T) {
				res := admin.Do(t, "GET", deployment.OrgPath("clients", name))
				// the implementations expose slightly different field sets
				// for clients; both are documented as acceptable
				must.MatchResponse(t, res, runtime.Select(
					match.ExpectedResponse{
						StatusCode: 200,
						BodyExact: map[string]any{
							"name":       name,
							"clientname": name,
							"validator":  false,
							"admin":      false,
							"json_class": "Chef::ApiClient",
							"chef_type":  "client",
						},
					},
					match.ExpectedResponse{
						StatusCode: 200,
						BodyExact: map[string]any{
							"name":       name,
							"clientname": name,
							"validator":  false,
							"orgname":    deployment.Org,
							"json_class": "Chef::ApiClient",
							"chef_type":  "client",
						},
					},
				))
			})

			t.Run("list includes the new client", func(t *testing.T) {
				res := admin.Do(t, "GET", deployment.OrgPath("clients"))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 200,
					Body: map[string]any{
						name: regexp.MustCompile(`/clients/`),
					},
				})
			})

			t.Run("recreate conflicts", func(t *testing.T) {
				res := admin.Do(t, "POST", deployment.OrgPath("clients"),
					client.WithRawBody(fixtures.ClientBody(name)))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 409,
					BodyExact: map[string]any{
						"error": []any{"Client already exists"},
					},
				})
			})

			t.Run("delete returns the object and removes it", func(t *testing.T) {
				res := admin.Do(t, "DELETE", deployment.OrgPath("clients", name))
				must.MatchResponse(t, res, match.ExpectedResponse{
					StatusCode: 200,
					Body: map[string]any{
						"name": name,
					},
				})

				res = admin.Do(t, "GET", deployment.OrgPath("clients", name))
				must.MatchResponse(t, res, runtime.Select(
					match.ExpectedResponse{
						StatusCode: 404,
						BodyExact: map[string]any{
							"error": []any{fmt.Sprintf("Could not load client %s", name)},
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

func TestClientCreateValidation(t *testing.T) {
	deployment := helpers.Deploy(t, runtime.Rewrite)
	defer deployment.Destroy()

	res := deployment.Admin.Do(t, "POST", deployment.OrgPath("clients"),
		client.WithJSONBody(t, map[string]any{"validator": true}))
	must.MatchResponse(t, res, match.ExpectedResponse{
		StatusCode: 400,
		Body: map[string]any{
			"error": []any{"Field 'name' missing"},
		},
	})
}

// Every org-scoped endpoint enforces the same two-step gate: unsigned
// requests are unauthenticated, signed requests from non-members are
// unauthorized.
func TestClientAuthorizationLevels(t *testing.T) {
	deployment := helpers.Deploy(t, runtime.Rewrite)
	defer deployment.Destroy()

	t.Run("superuser can read", func(t *testing.T) {
		res := deployment.Superuser.Do(t, "GET", deployment.OrgPath("clients"))
		must.MatchResponse(t, res, match.ExpectedResponse{StatusCode: 200})
	})

	t.Run("outside user is forbidden", func(t *testing.T) {
		res := deployment.Outside.Do(t, "GET", deployment.OrgPath("clients"))
		must.MatchResponse(t, res, match.ExpectedResponse{
			StatusCode: 403,
			Body: map[string]any{
				"error": regexp.MustCompile(`not associated with organization`),
			},
		})
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		res := deployment.Anonymous.Do(t, "GET", deployment.OrgPath("clients"))
		must.MatchResponse(t, res, match.ExpectedResponse{
			StatusCode: 401,
			BodyExact: map[string]any{
				"error": []any{"authentication required"},
			},
		})
	})

	t.Run("denied requests are never 2xx", func(t *testing.T) {
		for _, requestor := range []*client.Requestor{deployment.Outside, deployment.Anonymous} {
			res := requestor.Do(t, "DELETE", deployment.OrgPath("clients", "whatever"))
			must.MatchResponse(t, res, match.ExpectedResponse{
				StatusCodeIn: []int{401, 403},
			})
		}
	})
}
