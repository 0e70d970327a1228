// Package workflow implements the memory-bank mode orchestrator.
//
// A session moves through a fixed set of modes (Init → Plan → Design →
// Implement → Review → Archive). Commands map to modes via the Router;
// each mode has a step function; some steps force an automatic transition
// to a successor mode, which the Machine executes within the same run.
//
// Design principles (same as the rest of membank):
// - SRP: types, router, session, store, and machine in separate files
// - DIP: Store and the collaborator roles are interfaces
// - Steps return tagged results instead of raising — control flow stays visible
package workflow

import "fmt"

// --- Mode enum ---

// Mode is a named stage in the fixed workflow enumeration.
type Mode string

const (
	ModeInit      Mode = "Init"
	ModePlan      Mode = "Plan"
	ModeDesign    Mode = "Design"
	ModeImplement Mode = "Implement"
	ModeReview    Mode = "Review"
	ModeArchive   Mode = "Archive"
)

// AllModes lists every mode in workflow order.
var AllModes = []Mode{ModeInit, ModePlan, ModeDesign, ModeImplement, ModeReview, ModeArchive}

// validModes is the set of allowed modes.
var validModes = map[Mode]bool{
	ModeInit:      true,
	ModePlan:      true,
	ModeDesign:    true,
	ModeImplement: true,
	ModeReview:    true,
	ModeArchive:   true,
}

// ParseMode converts a mode name into a Mode.
// Returns an error if the name is not a known mode.
func ParseMode(name string) (Mode, error) {
	m := Mode(name)
	if !validModes[m] {
		return "", fmt.Errorf("invalid mode %q: must be one of: Init, Plan, Design, Implement, Review, Archive", name)
	}
	return m, nil
}

// --- Complexity level ---

// ComplexityLevel is an externally supplied ordinal (1-4) gating whether
// planning and design stages are mandatory. Zero means "not yet classified".
type ComplexityLevel int

const (
	LevelUnset ComplexityLevel = 0
	Level1     ComplexityLevel = 1
	Level2     ComplexityLevel = 2
	Level3     ComplexityLevel = 3
	Level4     ComplexityLevel = 4
)

// DefaultComplexity is applied when the classifier reports no result.
// A missing classification must never skip planning, so the default is
// level 2, not level 1.
const DefaultComplexity = Level2

// Valid reports whether the level is one of the four known levels.
func (l ComplexityLevel) Valid() bool {
	return l >= Level1 && l <= Level4
}

// ValidateLevel returns an error if the level is not one of the four known levels.
func ValidateLevel(l ComplexityLevel) error {
	if !l.Valid() {
		return fmt.Errorf("invalid complexity level %d: must be 1-4", int(l))
	}
	return nil
}

// --- Design kinds and components ---

// DesignKind categorizes what sort of design decision a component needs.
type DesignKind string

const (
	KindArchitecture    DesignKind = "architecture"
	KindAlgorithm       DesignKind = "algorithm"
	KindInterfaceDesign DesignKind = "interface"
)

// validKinds is the set of allowed design kinds.
var validKinds = map[DesignKind]bool{
	KindArchitecture:    true,
	KindAlgorithm:       true,
	KindInterfaceDesign: true,
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k DesignKind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid design kind %q: must be one of: architecture, algorithm, interface", k)
	}
	return nil
}

// ResourceKey returns the rule-cache key holding the guidance text
// for this design kind.
func (k DesignKind) ResourceKey() string {
	return "design-" + string(k)
}

// DesignComponent is a unit of work flagged as requiring an explicit
// design decision before implementation may proceed. A component is
// resolved once a decision payload has been recorded for it.
type DesignComponent struct {
	Name     string     `json:"name"`
	Kind     DesignKind `json:"kind"`
	Resolved bool       `json:"resolved"`
	Decision string     `json:"decision,omitempty"`
}

// --- Run result ---

// RunResult is the structured outcome of a single orchestrator run.
type RunResult struct {
	FinalMode              Mode              `json:"final_mode"`
	Terminal               bool              `json:"terminal"`
	ReadyForImplementation bool              `json:"ready_for_implementation"`
	Artifacts              map[string]string `json:"artifacts"`
}
