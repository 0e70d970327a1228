// Package tools implements MCP tool handlers for the memory-bank workflow.
//
// Each tool is a struct that receives its dependencies at construction
// (DIP) and exposes Definition/Handle for registration.
//
// The host AI plays the collaborator roles the orchestrator externalizes:
// the complexity level, component list, and design decisions arrive as
// tool parameters and are adapted into workflow collaborators per call.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/membanklabs/membank/internal/workflow"
)

// intArg extracts an integer argument from a tool request.
// MCP numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// parseComplexity converts the optional complexity parameter ("1".."4")
// into a level. An empty string means "no classification supplied".
func parseComplexity(raw string) (workflow.ComplexityLevel, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return workflow.LevelUnset, false, nil
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &n); err != nil {
		return workflow.LevelUnset, false, fmt.Errorf("invalid complexity %q: must be 1-4", raw)
	}
	level := workflow.ComplexityLevel(n)
	if err := workflow.ValidateLevel(level); err != nil {
		return workflow.LevelUnset, false, err
	}
	return level, true, nil
}

// componentParam is the JSON shape of one entry in the components parameter.
type componentParam struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// parseComponents decodes the components parameter: a JSON array of
// {"name": ..., "kind": "architecture"|"algorithm"|"interface"}.
func parseComponents(raw string) ([]workflow.DesignComponent, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var params []componentParam
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("parsing components: %w", err)
	}

	out := make([]workflow.DesignComponent, 0, len(params))
	for _, p := range params {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("component with empty name")
		}
		kind := workflow.DesignKind(p.Kind)
		if err := workflow.ValidateKind(kind); err != nil {
			return nil, err
		}
		out = append(out, workflow.DesignComponent{Name: p.Name, Kind: kind})
	}
	return out, nil
}

// parseDecisions decodes the decisions parameter: a JSON object mapping
// component names to decision payloads.
func parseDecisions(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parsing decisions: %w", err)
	}
	return out, nil
}

// renderComponents builds the component checklist used in tool responses.
func renderComponents(comps []workflow.DesignComponent) string {
	if len(comps) == 0 {
		return "  (none)\n"
	}
	var b strings.Builder
	for _, c := range comps {
		marker := "⬜"
		if c.Resolved {
			marker = "✅"
		}
		fmt.Fprintf(&b, "  %s %s (%s)\n", marker, c.Name, c.Kind)
	}
	return b.String()
}
