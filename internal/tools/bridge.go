package tools

import (
	"log"

	"github.com/membanklabs/membank/internal/history"
	"github.com/membanklabs/membank/internal/workflow"
)

// HistoryBridge mirrors committed workflow events into the history store.
// It implements workflow.Observer. Persistence failures are logged and
// swallowed: history is an optional subsystem and must never fail a run.
type HistoryBridge struct {
	store *history.Store
}

// NewHistoryBridge creates a bridge backed by the given store.
func NewHistoryBridge(store *history.Store) *HistoryBridge {
	return &HistoryBridge{store: store}
}

// DecisionRecorded persists one resolved design component.
func (b *HistoryBridge) DecisionRecorded(c workflow.DesignComponent) {
	if b == nil || b.store == nil {
		return
	}
	if _, err := b.store.AddDecision(c.Name, string(c.Kind), c.Decision); err != nil {
		log.Printf("history: recording decision for %q: %v", c.Name, err)
	}
}

// SessionArchived persists the archived session as a run record.
func (b *HistoryBridge) SessionArchived(s *workflow.SessionState) {
	if b == nil || b.store == nil {
		return
	}
	rec := history.RunRecord{
		FinalMode:  string(s.Mode),
		Complexity: int(s.Complexity),
		Ready:      s.ReadyForImplementation,
		Components: len(s.Components),
		Tasks:      s.Artifacts.Tasks,
		Progress:   s.Artifacts.Progress,
	}
	if _, err := b.store.AddRun(rec); err != nil {
		log.Printf("history: recording archived run: %v", err)
	}
}
