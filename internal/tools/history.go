package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/membanklabs/membank/internal/history"
)

// HistoryTool handles the bank_history MCP tool. It is only registered
// when the history store opened successfully.
type HistoryTool struct {
	store *history.Store
}

// NewHistoryTool creates a HistoryTool with the given store.
func NewHistoryTool(store *history.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_history",
		mcp.WithDescription(
			"List recently archived workflow runs and the latest recorded "+
				"design decisions. Useful for recalling how past tasks were "+
				"classified and what was decided.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries per section (default 10)."),
		),
	)
}

// Handle processes the bank_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 10)

	runs, err := t.store.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	decisions, err := t.store.ListDecisions(limit)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Workflow History\n\n## Archived Runs\n\n")
	if len(runs) == 0 {
		b.WriteString("  (none yet — runs appear here after ARCHIVE)\n")
	}
	for _, r := range runs {
		ready := ""
		if r.Ready {
			ready = ", ready"
		}
		fmt.Fprintf(&b, "- `%s` — %s, level %d, %d component(s)%s (%s)\n",
			shortID(r.ID), r.FinalMode, r.Complexity, r.Components, ready, r.CreatedAt)
	}

	b.WriteString("\n## Recent Decisions\n\n")
	if len(decisions) == 0 {
		b.WriteString("  (none yet)\n")
	}
	for _, d := range decisions {
		fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n",
			d.Component, d.Kind, d.CreatedAt, firstLine(d.Decision))
	}

	return mcp.NewToolResultText(b.String()), nil
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// firstLine truncates a decision payload to its first line for the list view.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
