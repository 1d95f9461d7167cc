package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/depgraph"
)

// AgentResponse is the wire shape of one agent
type AgentResponse struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Model        string   `json:"model,omitempty"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	RolePrompt   string   `json:"role_prompt,omitempty"`
}

// SkillResponse is the wire shape of one skill
type SkillResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
}

// CommandResponse is the wire shape of one command
type CommandResponse struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Args        []ArgResponse `json:"args,omitempty"`
}

// ArgResponse is one command argument
type ArgResponse struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

// RuleResponse is the wire shape of one rule
type RuleResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Scope       []string `json:"scope,omitempty"`
	Content     string   `json:"content,omitempty"`
}

// SpecResponse summarizes one spec document
type SpecResponse struct {
	Path         string `json:"path"`
	Requirements int    `json:"requirements"`
	Scenarios    int    `json:"scenarios"`
}

// BundleResponse summarizes the whole bundle
type BundleResponse struct {
	Root     string `json:"root"`
	Summary  string `json:"summary"`
	Agents   int    `json:"agents"`
	Skills   int    `json:"skills"`
	Commands int    `json:"commands"`
	Rules    int    `json:"rules"`
	Specs    int    `json:"specs"`
}

// handleBundle handles GET /v1/bundle
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	s.writeJSONResponse(w, BundleResponse{
		Root:     b.Root,
		Summary:  b.Summary(),
		Agents:   len(b.Agents),
		Skills:   len(b.Skills),
		Commands: len(b.Commands),
		Rules:    len(b.Rules),
		Specs:    len(b.Specs),
	})
}

// handleListAgents handles GET /v1/agents
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	agents := make([]AgentResponse, 0, len(b.Agents))
	for _, agent := range b.Agents {
		agents = append(agents, AgentResponse{
			Name:         agent.Metadata.Name,
			Description:  agent.Metadata.Description,
			Model:        agent.Metadata.Model,
			AllowedTools: agent.Metadata.AllowedTools,
			Skills:       agent.Metadata.Skills,
		})
	}
	s.writeJSONResponse(w, agents)
}

// handleGetAgent handles GET /v1/agents/{name}
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	for _, agent := range b.Agents {
		if agent.Metadata.Name == name {
			s.writeJSONResponse(w, AgentResponse{
				Name:         agent.Metadata.Name,
				Description:  agent.Metadata.Description,
				Model:        agent.Metadata.Model,
				AllowedTools: agent.Metadata.AllowedTools,
				Skills:       agent.Metadata.Skills,
				RolePrompt:   agent.RolePrompt,
			})
			return
		}
	}
	s.writeErrorResponse(w, http.StatusNotFound, "agent not found", nil)
}

// handleListSkills handles GET /v1/skills
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	skills := make([]SkillResponse, 0, len(b.Skills))
	for _, name := range b.SkillNames() {
		skill := b.Skills[name]
		skills = append(skills, SkillResponse{
			Name:        skill.Name,
			Description: skill.Description,
			Content:     skill.Content,
		})
	}
	s.writeJSONResponse(w, skills)
}

// handleListCommands handles GET /v1/commands
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	cmds := make([]CommandResponse, 0, len(b.Commands))
	for _, cmd := range b.Commands {
		resp := CommandResponse{Name: cmd.Name, Description: cmd.Description}
		for _, arg := range cmd.Args {
			resp.Args = append(resp.Args, ArgResponse{
				Name:     arg.Name,
				Required: arg.Required,
				Default:  arg.Default,
			})
		}
		cmds = append(cmds, resp)
	}
	s.writeJSONResponse(w, cmds)
}

// handleListRules handles GET /v1/rules, optionally scoped with ?path=
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	path := r.URL.Query().Get("path")
	resp := make([]RuleResponse, 0, len(b.Rules))
	for _, rule := range b.Rules {
		if path != "" && !rule.AppliesTo(path) {
			continue
		}
		resp = append(resp, RuleResponse{
			Name:        rule.Name,
			Description: rule.Description,
			Priority:    string(rule.Priority),
			Scope:       rule.Scope,
			Content:     rule.Content,
		})
	}
	s.writeJSONResponse(w, resp)
}

// handleListSpecs handles GET /v1/specs
func (s *Server) handleListSpecs(w http.ResponseWriter, r *http.Request) {
	b, err := s.loadBundle(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load bundle", err)
		return
	}

	specs := make([]SpecResponse, 0, len(b.Specs))
	for _, doc := range b.Specs {
		specs = append(specs, SpecResponse{
			Path:         doc.Path,
			Requirements: len(doc.Requirements),
			Scenarios:    doc.ScenarioCount(),
		})
	}
	s.writeJSONResponse(w, specs)
}

// handleAnalyze handles POST /v1/deps/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "dependency analysis service is not configured", nil)
		return
	}

	var req depgraph.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid analyze request", err)
		return
	}
	if req.Path == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "path is required", nil)
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		var unsupported *depgraph.UnsupportedLanguageError
		if errors.As(err, &unsupported) {
			s.writeErrorResponse(w, http.StatusUnprocessableEntity, unsupported.Error(), nil)
			return
		}
		s.writeErrorResponse(w, http.StatusBadGateway, "dependency analysis failed", err)
		return
	}
	s.writeJSONResponse(w, report)
}
