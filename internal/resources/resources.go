// Package resources implements MCP resource handlers for the memory-bank
// workflow.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (membank://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/membanklabs/membank/internal/workflow"
)

// Handler manages memory-bank resource endpoints.
type Handler struct {
	store workflow.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store workflow.Store) *Handler {
	return &Handler{store: store}
}

// StatusResource returns the MCP resource definition for session status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"membank://session/status",
		"Memory-Bank Session Status",
		mcp.WithResourceDescription("Current workflow mode, complexity level, and design component state"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current session state as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	session, err := h.load()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling session: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// TasksResource returns the MCP resource definition for the task checklist.
func (h *Handler) TasksResource() mcp.Resource {
	return mcp.NewResource(
		"membank://artifacts/tasks",
		"Tasks",
		mcp.WithResourceDescription("The task checklist built by PLAN and updated by CREATIVE"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleTasks returns the tasks artifact.
func (h *Handler) HandleTasks(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.artifact(req, func(s *workflow.SessionState) string { return s.Artifacts.Tasks })
}

// ActiveContextResource returns the MCP resource definition for the
// active context document.
func (h *Handler) ActiveContextResource() mcp.Resource {
	return mcp.NewResource(
		"membank://artifacts/active-context",
		"Active Context",
		mcp.WithResourceDescription("The task description and build guidance for the current session"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleActiveContext returns the active context artifact.
func (h *Handler) HandleActiveContext(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.artifact(req, func(s *workflow.SessionState) string { return s.Artifacts.ActiveContext })
}

// ProgressResource returns the MCP resource definition for the progress log.
func (h *Handler) ProgressResource() mcp.Resource {
	return mcp.NewResource(
		"membank://artifacts/progress",
		"Progress",
		mcp.WithResourceDescription("Chronological log of mode transitions, decisions, and reflections"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleProgress returns the progress artifact.
func (h *Handler) HandleProgress(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.artifact(req, func(s *workflow.SessionState) string { return s.Artifacts.Progress })
}

// artifact loads the session and serves one markdown artifact.
func (h *Handler) artifact(req mcp.ReadResourceRequest, pick func(*workflow.SessionState) string) ([]mcp.ResourceContents, error) {
	session, err := h.load()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	text := pick(session)
	if text == "" {
		text = "(empty)"
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

// load finds the project root and reads the current session.
func (h *Handler) load() (*workflow.SessionState, error) {
	projectRoot, err := workflow.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	session, err := h.store.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return session, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
