package tools

import (
	"context"

	"github.com/membanklabs/membank/internal/workflow"
)

// --- Host-AI collaborator adapters ---
//
// The orchestrator's collaborator interfaces are backed by values the
// host AI supplied as tool parameters. Each adapter is built per call,
// so one tool call cannot leak decisions into the next.

// paramClassifier returns the complexity level from the tool call, or
// reports absence so the machine applies its default.
type paramClassifier struct {
	level   workflow.ComplexityLevel
	present bool
}

func (p paramClassifier) Classify(ctx context.Context, taskDescription string) (workflow.ComplexityLevel, bool, error) {
	return p.level, p.present, nil
}

// paramIdentifier returns the component list from the tool call.
type paramIdentifier struct {
	components []workflow.DesignComponent
}

func (p paramIdentifier) IdentifyComponents(ctx context.Context, planContext string) ([]workflow.DesignComponent, error) {
	return p.components, nil
}

// mapGenerator resolves components named in the decisions map and defers
// everything else.
type mapGenerator struct {
	decisions map[string]string
}

func (g mapGenerator) GenerateDecision(ctx context.Context, component workflow.DesignComponent, guidance string) (string, bool, error) {
	decision, ok := g.decisions[component.Name]
	return decision, ok, nil
}
