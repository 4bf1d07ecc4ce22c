package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// ListRuleSetsResponse lists stored rule set versions.
type ListRuleSetsResponse struct {
	Active   int             `json:"active"`
	RuleSets []rules.Summary `json:"rule_sets"`
}

// ListRuleSetsEndpoint handles GET /api/rulesets.
type ListRuleSetsEndpoint struct{}

func (e *ListRuleSetsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rulesets", e.handler
}

func (e *ListRuleSetsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List rule sets
//	@Description	List every published rule set version, oldest first
//	@Tags			rulesets
//	@Produce		json
//	@Success		200	{object}	ListRuleSetsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/rulesets [get]
func (e *ListRuleSetsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	repo := svcctx.RuleRepoFrom(r.Context())
	if repo == nil {
		writeError(w, http.StatusServiceUnavailable, "rule repository not initialized")
		return
	}

	summaries, err := repo.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []rules.Summary{}
	}
	resp := ListRuleSetsResponse{RuleSets: summaries}
	if active := svcctx.RulesFrom(r.Context()); active != nil {
		resp.Active = active.Load().Version()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListRuleSetsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rule set versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListRuleSetsResponse
			if err := client.Get(cmd.Context(), "/api/rulesets", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ActiveRuleSetEndpoint handles GET /api/rulesets/active.
type ActiveRuleSetEndpoint struct{}

func (e *ActiveRuleSetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rulesets/active", e.handler
}

func (e *ActiveRuleSetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get the active rule set
//	@Description	The rule set extraction is currently served from
//	@Tags			rulesets
//	@Produce		json
//	@Success		200	{object}	rules.Manifest
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/rulesets/active [get]
func (e *ActiveRuleSetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	active := svcctx.RulesFrom(r.Context())
	if active == nil {
		writeError(w, http.StatusServiceUnavailable, "rule set not loaded")
		return
	}
	writeJSON(w, http.StatusOK, active.Load().Manifest())
}

func (e *ActiveRuleSetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp rules.Manifest
			if err := client.Get(cmd.Context(), "/api/rulesets/active", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetRuleSetEndpoint handles GET /api/rulesets/{version}.
type GetRuleSetEndpoint struct{}

func (e *GetRuleSetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rulesets/{version}", e.handler
}

func (e *GetRuleSetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a rule set version
//	@Tags			rulesets
//	@Produce		json
//	@Param			version	path		int	true	"Rule set version"
//	@Success		200		{object}	rules.Manifest
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/rulesets/{version} [get]
func (e *GetRuleSetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, "version must be a positive integer")
		return
	}

	repo := svcctx.RuleRepoFrom(r.Context())
	if repo == nil {
		writeError(w, http.StatusServiceUnavailable, "rule repository not initialized")
		return
	}

	rs, err := repo.Get(r.Context(), version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs.Manifest())
}

func (e *GetRuleSetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <version>",
		Short: "Show a rule set version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp rules.Manifest
			if err := client.Get(cmd.Context(), "/api/rulesets/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
