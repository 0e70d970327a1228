package workflow

import "context"

// --- Collaborator roles ---
//
// The orchestrator never decides complexity, never identifies components,
// and never generates design content. Those decisions come from external
// collaborators — in the MCP server they are backed by the host AI's tool
// parameters, in tests by small fakes.

// Classifier supplies the complexity level for a task description.
// ok=false means "no classification available"; the machine then applies
// DefaultComplexity.
type Classifier interface {
	Classify(ctx context.Context, taskDescription string) (level ComplexityLevel, ok bool, err error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, taskDescription string) (ComplexityLevel, bool, error)

func (f ClassifierFunc) Classify(ctx context.Context, taskDescription string) (ComplexityLevel, bool, error) {
	return f(ctx, taskDescription)
}

// ComponentIdentifier names the design components a plan requires.
// An empty (or nil) list means no creative work is needed.
type ComponentIdentifier interface {
	IdentifyComponents(ctx context.Context, planContext string) ([]DesignComponent, error)
}

// ComponentIdentifierFunc adapts a function to the ComponentIdentifier interface.
type ComponentIdentifierFunc func(ctx context.Context, planContext string) ([]DesignComponent, error)

func (f ComponentIdentifierFunc) IdentifyComponents(ctx context.Context, planContext string) ([]DesignComponent, error) {
	return f(ctx, planContext)
}

// DecisionGenerator produces the decision payload for one design component,
// given the guidance text for its kind. ok=false means the generator
// declines or defers — the component stays unresolved and a later Design
// run picks it up again.
type DecisionGenerator interface {
	GenerateDecision(ctx context.Context, component DesignComponent, guidance string) (payload string, ok bool, err error)
}

// DecisionGeneratorFunc adapts a function to the DecisionGenerator interface.
type DecisionGeneratorFunc func(ctx context.Context, component DesignComponent, guidance string) (string, bool, error)

func (f DecisionGeneratorFunc) GenerateDecision(ctx context.Context, component DesignComponent, guidance string) (string, bool, error) {
	return f(ctx, component, guidance)
}

// Observer is notified after step results are committed. Used to mirror
// decisions and archived sessions into the history store. All methods are
// called synchronously from Run; implementations must not block for long.
type Observer interface {
	DecisionRecorded(component DesignComponent)
	SessionArchived(s *SessionState)
}
