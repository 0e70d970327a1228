package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/membanklabs/membank/internal/history"
	"github.com/membanklabs/membank/internal/workflow"
)

func newTestHistory(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.New(history.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("history.New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// --- HistoryBridge ---

func TestHistoryBridge_DecisionRecorded(t *testing.T) {
	store := newTestHistory(t)
	bridge := NewHistoryBridge(store)

	bridge.DecisionRecorded(workflow.DesignComponent{
		Name:     "AuthFlow",
		Kind:     workflow.KindArchitecture,
		Resolved: true,
		Decision: "OAuth2 with PKCE",
	})

	decisions, err := store.ListDecisions(10)
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("ListDecisions returned %d, want 1", len(decisions))
	}
	if decisions[0].Component != "AuthFlow" || decisions[0].Kind != "architecture" {
		t.Errorf("recorded decision = %+v", decisions[0])
	}
}

func TestHistoryBridge_SessionArchived(t *testing.T) {
	store := newTestHistory(t)
	bridge := NewHistoryBridge(store)

	session := workflow.NewSessionState()
	session.Mode = workflow.ModeArchive
	session.Complexity = workflow.Level3
	session.ReadyForImplementation = true
	session.Components = []workflow.DesignComponent{{Name: "A"}, {Name: "B"}}
	session.Artifacts.Tasks = "# Tasks\n"
	session.Artifacts.Progress = "- archived\n"

	bridge.SessionArchived(session)

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns returned %d, want 1", len(runs))
	}
	rec := runs[0]
	if rec.FinalMode != "Archive" || rec.Complexity != 3 || !rec.Ready || rec.Components != 2 {
		t.Errorf("recorded run = %+v", rec)
	}
	if rec.Tasks != "# Tasks\n" {
		t.Errorf("run tasks = %q", rec.Tasks)
	}
}

func TestHistoryBridge_NilSafe(t *testing.T) {
	// A nil bridge or a bridge without a store must never panic — history
	// is optional.
	var bridge *HistoryBridge
	bridge.DecisionRecorded(workflow.DesignComponent{Name: "X"})
	bridge.SessionArchived(workflow.NewSessionState())

	empty := NewHistoryBridge(nil)
	empty.DecisionRecorded(workflow.DesignComponent{Name: "X"})
	empty.SessionArchived(workflow.NewSessionState())
}

// --- HistoryTool ---

func TestHistoryTool_Empty(t *testing.T) {
	tool := NewHistoryTool(newTestHistory(t))

	result, err := tool.Handle(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "none yet") {
		t.Errorf("empty history should say so, got: %s", text)
	}
}

func TestHistoryTool_ListsRunsAndDecisions(t *testing.T) {
	store := newTestHistory(t)
	if _, err := store.AddRun(history.RunRecord{FinalMode: "Archive", Complexity: 2, Components: 1}); err != nil {
		t.Fatalf("AddRun failed: %v", err)
	}
	if _, err := store.AddDecision("AuthFlow", "architecture", "OAuth2 with PKCE\nlong rationale follows"); err != nil {
		t.Fatalf("AddDecision failed: %v", err)
	}

	tool := NewHistoryTool(store)
	result, err := tool.Handle(context.Background(), request(map[string]interface{}{"limit": float64(5)}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "Archive") || !strings.Contains(text, "level 2") {
		t.Errorf("result should describe the run, got: %s", text)
	}
	if !strings.Contains(text, "AuthFlow") || !strings.Contains(text, "OAuth2 with PKCE") {
		t.Errorf("result should describe the decision, got: %s", text)
	}
	if strings.Contains(text, "long rationale follows") {
		t.Errorf("decision list should truncate to the first line, got: %s", text)
	}
}
