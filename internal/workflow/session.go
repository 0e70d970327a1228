package workflow

import "time"

// --- Session state ---

// Canonical artifact keys as exposed in RunResult.Artifacts.
const (
	ArtifactTasks         = "tasks"
	ArtifactActiveContext = "activeContext"
	ArtifactProgress      = "progress"
)

// Artifacts is the typed record of the session's text artifacts. The three
// named fields are the canonical memory-bank documents; Extra carries any
// genuinely unconstrained content collaborators attach. The orchestrator
// treats all values as opaque strings and never parses them.
type Artifacts struct {
	Tasks         string            `json:"-"`
	ActiveContext string            `json:"-"`
	Progress      string            `json:"-"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Map flattens the artifacts into the key-value form returned from a run.
func (a Artifacts) Map() map[string]string {
	out := make(map[string]string, 3+len(a.Extra))
	for k, v := range a.Extra {
		out[k] = v
	}
	out[ArtifactTasks] = a.Tasks
	out[ArtifactActiveContext] = a.ActiveContext
	out[ArtifactProgress] = a.Progress
	return out
}

// SessionState is the single mutable aggregate for one workflow session.
// It is owned by exactly one Machine at a time and mutated only by the
// currently executing mode's step.
//
// The canonical artifact texts are persisted as markdown files next to
// workflow.json (see FileStore), which is why they carry no JSON tags.
type SessionState struct {
	Mode                   Mode              `json:"mode"`
	Complexity             ComplexityLevel   `json:"complexity,omitempty"`
	Components             []DesignComponent `json:"components,omitempty"`
	ReadyForImplementation bool              `json:"ready_for_implementation"`
	Artifacts              Artifacts         `json:"artifacts"`
	CreatedAt              string            `json:"created_at"`
	UpdatedAt              string            `json:"updated_at"`
}

// NewSessionState creates a fresh session positioned at Init.
func NewSessionState() *SessionState {
	now := timeNow().UTC().Format(time.RFC3339)
	return &SessionState{
		Mode:      ModeInit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Steps run against a clone so a failed step
// leaves the committed session untouched (all-or-nothing application).
func (s *SessionState) Clone() *SessionState {
	out := *s
	if s.Components != nil {
		out.Components = make([]DesignComponent, len(s.Components))
		copy(out.Components, s.Components)
	}
	if s.Artifacts.Extra != nil {
		out.Artifacts.Extra = make(map[string]string, len(s.Artifacts.Extra))
		for k, v := range s.Artifacts.Extra {
			out.Artifacts.Extra[k] = v
		}
	}
	return &out
}

// Component returns a pointer to the named component, or nil.
func (s *SessionState) Component(name string) *DesignComponent {
	for i := range s.Components {
		if s.Components[i].Name == name {
			return &s.Components[i]
		}
	}
	return nil
}

// UnresolvedCount returns how many components still need a decision.
func (s *SessionState) UnresolvedCount() int {
	n := 0
	for _, c := range s.Components {
		if !c.Resolved {
			n++
		}
	}
	return n
}
