// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/membanklabs/membank/internal/config"
	"github.com/membanklabs/membank/internal/history"
	"github.com/membanklabs/membank/internal/prompts"
	"github.com/membanklabs/membank/internal/resources"
	"github.com/membanklabs/membank/internal/rules"
	"github.com/membanklabs/membank/internal/tools"
	"github.com/membanklabs/membank/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	projectRoot, err := workflow.FindProjectRoot()
	if err != nil {
		return nil, noop, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		// A broken config file disables customization, not the server.
		log.Printf("WARNING: config ignored: %v", err)
		cfg = config.Default(projectRoot)
	}

	router, err := buildRouter(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("building command router: %w", err)
	}

	cache := rules.NewCache()
	rules.RegisterDefaults(cache, cfg.RulesDir)

	store := workflow.NewFileStore()

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"membank",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register workflow tools ---

	runTool := tools.NewRunTool(store, router, cache)
	s.AddTool(runTool.Definition(), runTool.Handle)

	decideTool := tools.NewDecideTool(store, router, cache)
	s.AddTool(decideTool.Definition(), decideTool.Handle)

	statusTool := tools.NewStatusTool(store)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Wire the history subsystem ---
	//
	// History is independent from the workflow: if the database fails to
	// open, workflow tools continue working. We log a warning and skip
	// history registration — runs just aren't recorded across sessions.

	cleanup := noop
	histStore, histErr := history.New(history.Config{DataDir: cfg.HistoryDir})
	if histErr != nil {
		log.Printf("WARNING: history subsystem disabled: %v", histErr)
	} else {
		cleanup = func() {
			if err := histStore.Close(); err != nil {
				log.Printf("WARNING: history store close: %v", err)
			}
		}

		// Committed decisions and archived sessions are mirrored into
		// the history store. The bridge is nil-safe: tools work normally
		// without it.
		bridge := tools.NewHistoryBridge(histStore)
		runTool.SetBridge(bridge)
		decideTool.SetBridge(bridge)

		historyTool := tools.NewHistoryTool(histStore)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	s.AddResource(resourceHandler.TasksResource(), resourceHandler.HandleTasks)
	s.AddResource(resourceHandler.ActiveContextResource(), resourceHandler.HandleActiveContext)
	s.AddResource(resourceHandler.ProgressResource(), resourceHandler.HandleProgress)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when history
// is disabled or hasn't been initialized.
func noop() {}

// buildRouter converts configured alias names into modes and constructs
// the command router. An alias naming an unknown mode is skipped with a
// warning; a conflicting alias is a hard error.
func buildRouter(cfg config.Config) (*workflow.Router, error) {
	aliases := make(map[string]workflow.Mode, len(cfg.Aliases))
	for token, modeName := range cfg.Aliases {
		mode, err := workflow.ParseMode(modeName)
		if err != nil {
			log.Printf("WARNING: alias %q ignored: %v", token, err)
			continue
		}
		aliases[token] = mode
	}
	return workflow.NewRouter(aliases)
}

// serverInstructions returns the system instructions that tell the AI
// how to use membank effectively.
func serverInstructions() string {
	return `You have access to membank, a structured workflow MCP server for
development tasks. It tracks a session through modes — Init, Plan, Design,
Implement, Review, Archive — and persists everything under memory-bank/ in
the project root.

## CRITICAL: How Tools Work

membank tools are STATE tools, not AI tools. The workflow engine tracks
modes, enforces ordering, and stores artifacts — but YOU supply the
judgment it externalizes:
- YOU classify task complexity (the 'complexity' parameter on VAN)
- YOU identify design components (the 'components' parameter on PLAN)
- YOU write design decisions (bank_decide, after reading the guidance)

NEVER pass placeholder text. Generate real content from your conversation
with the user.

## Commands (run via bank_run)

- VAN — start a task. Supply description and your complexity rating:
  1 = quick fix, 2 = simple enhancement, 3 = intermediate feature,
  4 = complex system. Level 1 ends the run immediately (just do the fix);
  levels 2-4 automatically continue into PLAN in the same call.
- PLAN — record the plan. For level 3-4 tasks, supply a components array:
  the parts that need a design decision, each with a kind (architecture,
  algorithm, or interface). Components force a transition into CREATIVE.
- CREATIVE — resolve design components. Each component gets guidance text
  for its kind; record your decision per component with bank_decide
  (Context, Decision, Rationale, Alternatives Rejected). Decisions are
  final for the session. When the last component resolves, the session is
  flagged ready for implementation.
- IMPLEMENT — loads build guidance into activeContext.md. Then build the
  tasks yourself, checking them off in memory-bank/tasks.md.
- REFLECT — record what worked and what didn't (description parameter).
- ARCHIVE — close out the session; records it to history when available.

## Typical Flow

1. User describes a task → judge complexity → bank_run VAN
2. Level 3-4: bank_run PLAN with components → session lands in CREATIVE
3. bank_decide per component until ready for implementation
4. bank_run IMPLEMENT → build → bank_run REFLECT → bank_run ARCHIVE

## Rules

- Run VAN before anything else on a new task — PLAN without a recorded
  complexity level is rejected.
- Check bank_status when unsure where the session stands.
- Session artifacts are also exposed as resources (membank://...).
- bank_history shows how past tasks were classified and decided — consult
  it before classifying similar work.`
}
