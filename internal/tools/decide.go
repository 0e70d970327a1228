package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/membanklabs/membank/internal/rules"
	"github.com/membanklabs/membank/internal/workflow"
)

// DecideTool handles the bank_decide MCP tool. It records the design
// decision for one named component by re-running the Design step with a
// single-entry decision map — resolved components are never re-decided,
// and resolving the last open component flags the session ready for
// implementation.
type DecideTool struct {
	store  workflow.Store
	router *workflow.Router
	cache  *rules.Cache
	bridge workflow.Observer
}

// NewDecideTool creates a DecideTool with its dependencies.
func NewDecideTool(store workflow.Store, router *workflow.Router, cache *rules.Cache) *DecideTool {
	return &DecideTool{store: store, router: router, cache: cache}
}

// SetBridge injects an optional observer for history persistence.
func (t *DecideTool) SetBridge(obs workflow.Observer) { t.bridge = obs }

// Definition returns the MCP tool definition for registration.
func (t *DecideTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_decide",
		mcp.WithDescription(
			"Record the design decision for one component identified during PLAN. "+
				"Read the kind's guidance first (the CREATIVE run loads it), generate "+
				"a real decision — Context, Decision, Rationale, Alternatives Rejected — "+
				"and pass it here. Already-resolved components are never re-decided.",
		),
		mcp.WithString("component",
			mcp.Required(),
			mcp.Description("Name of the component being decided, exactly as identified in PLAN."),
		),
		mcp.WithString("decision",
			mcp.Required(),
			mcp.Description("The design decision payload. Actual content, not a placeholder."),
		),
	)
}

// Handle processes the bank_decide tool call.
func (t *DecideTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("component", "")
	decision := req.GetString("decision", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'component' is required"), nil
	}
	if strings.TrimSpace(decision) == "" {
		return mcp.NewToolResultError("'decision' is required — provide the actual design decision"), nil
	}

	projectRoot, err := workflow.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	session, err := t.store.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	c := session.Component(name)
	if c == nil {
		names := make([]string, 0, len(session.Components))
		for _, comp := range session.Components {
			names = append(names, comp.Name)
		}
		if len(names) == 0 {
			return mcp.NewToolResultError("No design components in the session. Run PLAN (complexity 3-4) first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf(
			"Unknown component %q. Components in this session: %s.", name, strings.Join(names, ", "),
		)), nil
	}
	if c.Resolved {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Component %q already has a recorded decision — decisions are final for the session.", name,
		)), nil
	}

	machine := workflow.NewMachine(t.router, t.cache, session,
		nil, nil, mapGenerator{decisions: map[string]string{name: decision}})
	machine.SetObserver(t.bridge)

	result, runErr := machine.Run(ctx, "CREATIVE", "")
	if runErr != nil {
		var invalid *workflow.InvalidStateError
		var collab *workflow.CollaboratorError
		if errors.As(runErr, &invalid) || errors.As(runErr, &collab) {
			return mcp.NewToolResultError(runErr.Error()), nil
		}
		return nil, runErr
	}

	if err := t.store.Save(projectRoot, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Decision Recorded: %s\n\n", name)
	b.WriteString("## Design Components\n\n")
	b.WriteString(renderComponents(session.Components))
	b.WriteString("\n")
	if result.ReadyForImplementation {
		b.WriteString("All components resolved — **ready for implementation**. Run IMPLEMENT to start building.")
	} else {
		fmt.Fprintf(&b, "%d component(s) still unresolved.", session.UnresolvedCount())
	}
	return mcp.NewToolResultText(b.String()), nil
}
