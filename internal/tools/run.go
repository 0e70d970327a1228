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

// RunTool handles the bank_run MCP tool — the single entry point of the
// workflow orchestrator. It resolves the command token, executes the mode
// step (plus any forced transitions) and persists the session.
type RunTool struct {
	store  workflow.Store
	router *workflow.Router
	cache  *rules.Cache
	bridge workflow.Observer
}

// NewRunTool creates a RunTool with its dependencies.
func NewRunTool(store workflow.Store, router *workflow.Router, cache *rules.Cache) *RunTool {
	return &RunTool{store: store, router: router, cache: cache}
}

// SetBridge injects an optional observer for history persistence.
func (t *RunTool) SetBridge(obs workflow.Observer) { t.bridge = obs }

// Definition returns the MCP tool definition for registration.
func (t *RunTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_run",
		mcp.WithDescription(
			"Run a memory-bank workflow command. Commands: VAN (classify a task and "+
				"start the workflow), PLAN, CREATIVE (design decisions), IMPLEMENT, "+
				"REFLECT, ARCHIVE — plus any configured aliases. Forced transitions "+
				"happen automatically: VAN on a level 2-4 task continues into PLAN "+
				"(and into CREATIVE when design components are identified) within the "+
				"same call. YOU are the classifier and designer: supply complexity, "+
				"components, and decisions as parameters.",
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command token, canonical or alias. Example: 'VAN' or 'van'."),
		),
		mcp.WithString("description",
			mcp.Description("Task description. Used by VAN as the session's active context; "+
				"used by REFLECT as the reflection notes; ignored otherwise."),
		),
		mcp.WithString("complexity",
			mcp.Description("Your complexity classification of the task, 1-4. "+
				"1 = quick fix (no planning), 2 = simple enhancement, 3 = intermediate "+
				"feature (design needed), 4 = complex system. Omit if unsure — the "+
				"workflow then assumes 2 and still goes through PLAN."),
			mcp.Enum("1", "2", "3", "4"),
		),
		mcp.WithString("components",
			mcp.Description("For PLAN at complexity 3-4: JSON array of design components, "+
				`e.g. [{"name":"AuthFlow","kind":"architecture"}]. `+
				"Kinds: architecture, algorithm, interface."),
		),
		mcp.WithString("decisions",
			mcp.Description("For CREATIVE: JSON object mapping component names to your "+
				"design decision payloads. Components you omit stay unresolved and can "+
				"be decided in a later CREATIVE run."),
		),
	)
}

// Handle processes the bank_run tool call.
func (t *RunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("command", "")
	if strings.TrimSpace(token) == "" {
		return mcp.NewToolResultError("'command' is required — e.g. VAN to start a task"), nil
	}
	payload := req.GetString("description", "")

	level, present, err := parseComplexity(req.GetString("complexity", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	components, err := parseComponents(req.GetString("components", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	decisions, err := parseDecisions(req.GetString("decisions", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projectRoot, err := workflow.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	session, err := t.store.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	machine := workflow.NewMachine(t.router, t.cache, session,
		paramClassifier{level: level, present: present},
		paramIdentifier{components: components},
		mapGenerator{decisions: decisions},
	)
	machine.SetObserver(t.bridge)

	result, runErr := machine.Run(ctx, token, payload)
	if runErr != nil {
		var unknown *workflow.UnknownCommandError
		if errors.As(runErr, &unknown) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"%v. Known commands: %s (case-insensitive), plus configured aliases (exact match).",
				runErr, strings.Join(t.router.Commands(), ", "),
			)), nil
		}

		// The session holds the state as of the last committed step —
		// persist it so a retry resumes from there.
		if err := t.store.Save(projectRoot, session); err != nil {
			return nil, fmt.Errorf("saving session after failed step: %w", err)
		}

		var invalid *workflow.InvalidStateError
		var collab *workflow.CollaboratorError
		switch {
		case errors.As(runErr, &invalid):
			return mcp.NewToolResultError(runErr.Error()), nil
		case errors.As(runErr, &collab):
			return mcp.NewToolResultError(fmt.Sprintf(
				"%v. The session is unchanged since the last completed step — fix the input and rerun the same command.",
				runErr,
			)), nil
		default:
			// UnregisteredResource and anything else unexpected is a
			// setup bug, not a user error.
			return nil, runErr
		}
	}

	if err := t.store.Save(projectRoot, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	return mcp.NewToolResultText(renderRunResult(result, session)), nil
}

// renderRunResult builds the markdown response for a completed run.
func renderRunResult(res workflow.RunResult, s *workflow.SessionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run Complete: %s\n\n", res.FinalMode)
	fmt.Fprintf(&b, "**Final mode:** %s\n", res.FinalMode)
	if s.Complexity.Valid() {
		fmt.Fprintf(&b, "**Complexity:** level %d\n", int(s.Complexity))
	}
	ready := "no"
	if res.ReadyForImplementation {
		ready = "yes"
	}
	fmt.Fprintf(&b, "**Ready for implementation:** %s\n\n", ready)

	if len(s.Components) > 0 {
		b.WriteString("## Design Components\n\n")
		b.WriteString(renderComponents(s.Components))
		b.WriteString("\n")
	}

	b.WriteString("Artifacts saved under `memory-bank/` (tasks.md, activeContext.md, progress.md).\n\n")
	b.WriteString("## Next Step\n\n")
	b.WriteString(nextStepHint(res, s))
	return b.String()
}

// nextStepHint tells the host what to do after this run.
func nextStepHint(res workflow.RunResult, s *workflow.SessionState) string {
	switch res.FinalMode {
	case workflow.ModeInit:
		return "Level 1 task — implement it directly, then run REFLECT to record the outcome."
	case workflow.ModePlan:
		return "Plan recorded with no design components. Run IMPLEMENT when you are ready to build."
	case workflow.ModeDesign:
		if res.ReadyForImplementation {
			return "All design decisions recorded. Run IMPLEMENT to start building."
		}
		unresolved := make([]string, 0, len(s.Components))
		for _, c := range s.Components {
			if !c.Resolved {
				unresolved = append(unresolved, c.Name)
			}
		}
		return fmt.Sprintf(
			"Unresolved components: %s. Record each decision with `bank_decide`, "+
				"or rerun CREATIVE with a decisions map.",
			strings.Join(unresolved, ", "),
		)
	case workflow.ModeImplement:
		return "Build guidance is in activeContext.md. Implement the tasks, then run REFLECT."
	case workflow.ModeReview:
		return "Reflection recorded. Run ARCHIVE to close out the session."
	case workflow.ModeArchive:
		return "Session archived. Start the next task with a fresh VAN command."
	}
	return "Run `bank_status` to inspect the session."
}
