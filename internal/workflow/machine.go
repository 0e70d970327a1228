package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/membanklabs/membank/internal/rules"
)

// --- Workflow state machine ---

// stepResult is the tagged outcome of one mode step: either plain success
// or a forced transition to a successor mode. Forced transitions out of
// Plan carry the identified component list; Design reports which
// components it resolved so observers fire only after commit.
type stepResult struct {
	forced     bool
	target     Mode
	components []DesignComponent
	resolved   []DesignComponent
	archived   bool
}

func success() stepResult { return stepResult{} }

func forceTransition(target Mode) stepResult {
	return stepResult{forced: true, target: target}
}

// Machine executes mode steps against a single session. One Run executes
// to completion before the next begins; forced transitions are synchronous
// continuations within the same run, never concurrent tasks. Concurrent
// runs must each own their own Machine and SessionState — only the rule
// cache is shared.
type Machine struct {
	router     *Router
	rules      *rules.Cache
	session    *SessionState
	classifier Classifier
	identifier ComponentIdentifier
	generator  DecisionGenerator
	observer   Observer
}

// NewMachine creates a Machine owning the given session. Collaborators may
// be nil: a nil classifier means no classification is available (the
// default complexity applies), a nil identifier identifies no components,
// and a nil generator defers every decision.
func NewMachine(router *Router, cache *rules.Cache, session *SessionState,
	classifier Classifier, identifier ComponentIdentifier, generator DecisionGenerator) *Machine {
	return &Machine{
		router:     router,
		rules:      cache,
		session:    session,
		classifier: classifier,
		identifier: identifier,
		generator:  generator,
	}
}

// SetObserver injects an optional Observer for history persistence.
func (m *Machine) SetObserver(obs Observer) { m.observer = obs }

// Session exposes the machine's session for rendering.
func (m *Machine) Session() *SessionState { return m.session }

// Run resolves the command token and executes mode steps until the run
// terminates. Each step runs against a staged clone of the session and is
// committed only on success, so a failed step leaves the session exactly
// as of the last completed step.
func (m *Machine) Run(ctx context.Context, token, payload string) (RunResult, error) {
	mode, err := m.router.Resolve(token)
	if err != nil {
		return RunResult{}, err
	}

	for {
		staged := m.session.Clone()
		res, err := m.step(ctx, mode, payload, staged)
		if err != nil {
			return RunResult{}, err
		}

		staged.Mode = mode
		staged.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
		*m.session = *staged

		for _, c := range res.resolved {
			if m.observer != nil {
				m.observer.DecisionRecorded(c)
			}
		}
		if res.archived && m.observer != nil {
			m.observer.SessionArchived(m.session.Clone())
		}

		if !res.forced {
			return m.result(mode), nil
		}

		// A forced transition to Implement is recorded but not executed:
		// implementation belongs to the host, so the run terminates here.
		if res.target == ModeImplement {
			m.session.ReadyForImplementation = true
			m.session.Artifacts.Progress = appendLine(m.session.Artifacts.Progress,
				fmt.Sprintf("- %s: all design decisions recorded — ready for implementation", mode))
			return m.result(mode), nil
		}

		m.session.Artifacts.Progress = appendLine(m.session.Artifacts.Progress,
			fmt.Sprintf("- %s: forced transition to %s", mode, res.target))
		if len(res.components) > 0 {
			m.session.Components = res.components
		}
		mode = res.target
	}
}

// result builds the run outcome from the committed session.
func (m *Machine) result(mode Mode) RunResult {
	return RunResult{
		FinalMode:              mode,
		Terminal:               true,
		ReadyForImplementation: m.session.ReadyForImplementation,
		Artifacts:              m.session.Artifacts.Map(),
	}
}

// step dispatches to the mode's step function.
func (m *Machine) step(ctx context.Context, mode Mode, payload string, s *SessionState) (stepResult, error) {
	switch mode {
	case ModeInit:
		return m.stepInit(ctx, payload, s)
	case ModePlan:
		return m.stepPlan(ctx, s)
	case ModeDesign:
		return m.stepDesign(ctx, s)
	case ModeImplement:
		return m.stepImplement(s)
	case ModeReview:
		return m.stepReview(payload, s)
	case ModeArchive:
		return m.stepArchive(s)
	default:
		return stepResult{}, &InvalidStateError{Mode: mode, Reason: "no step registered"}
	}
}

// stepInit classifies the task and decides whether planning is mandatory.
// Level 1 terminates here; levels 2-4 force a transition to Plan.
func (m *Machine) stepInit(ctx context.Context, payload string, s *SessionState) (stepResult, error) {
	level := DefaultComplexity
	if m.classifier != nil {
		got, ok, err := m.classifier.Classify(ctx, payload)
		if err != nil {
			return stepResult{}, &CollaboratorError{Mode: ModeInit, Op: "classify", Err: err}
		}
		if ok {
			if err := ValidateLevel(got); err != nil {
				return stepResult{}, &CollaboratorError{Mode: ModeInit, Op: "classify", Err: err}
			}
			level = got
		}
	}

	s.Complexity = level
	if strings.TrimSpace(payload) != "" {
		s.Artifacts.ActiveContext = "# Active Context\n\n" + strings.TrimSpace(payload) + "\n"
	}
	s.Artifacts.Progress = appendLine(s.Artifacts.Progress,
		fmt.Sprintf("- Init: classified at level %d", int(level)))

	if level == Level1 {
		// Quick task — no planning stage needed.
		return success(), nil
	}
	return forceTransition(ModePlan), nil
}

// stepPlan writes the plan summary and, for level >= 3, asks the
// identifier for design components. A non-empty list forces a transition
// to Design; an empty list terminates the run in Plan — advancing to
// Implement always requires a new external command.
func (m *Machine) stepPlan(ctx context.Context, s *SessionState) (stepResult, error) {
	if !s.Complexity.Valid() {
		return stepResult{}, &InvalidStateError{Mode: ModePlan, Reason: "no complexity level recorded — run VAN first"}
	}

	var comps []DesignComponent
	if s.Complexity >= Level3 && m.identifier != nil {
		found, err := m.identifier.IdentifyComponents(ctx, s.Artifacts.ActiveContext)
		if err != nil {
			return stepResult{}, &CollaboratorError{Mode: ModePlan, Op: "identify components", Err: err}
		}
		for _, c := range found {
			if err := ValidateKind(c.Kind); err != nil {
				return stepResult{}, &CollaboratorError{Mode: ModePlan, Op: "identify components", Err: err}
			}
		}
		comps = found
	}

	s.Artifacts.Tasks = renderPlanSummary(s.Complexity, comps)
	s.Artifacts.Progress = appendLine(s.Artifacts.Progress,
		fmt.Sprintf("- Plan: recorded plan with %d design component(s)", len(comps)))

	if len(comps) > 0 {
		res := forceTransition(ModeDesign)
		res.components = comps
		return res, nil
	}
	return success(), nil
}

// stepDesign walks the component list in order and asks the generator for
// a decision on each unresolved component, loading the guidance resource
// for its kind first. All components resolved forces the transition to
// Implement; otherwise the run terminates here and a later Design run
// picks up only the unresolved components.
func (m *Machine) stepDesign(ctx context.Context, s *SessionState) (stepResult, error) {
	if len(s.Components) == 0 {
		return stepResult{}, &InvalidStateError{Mode: ModeDesign, Reason: "no design components identified — run PLAN first"}
	}

	s.ReadyForImplementation = false
	var resolved []DesignComponent
	for i := range s.Components {
		c := &s.Components[i]
		if c.Resolved {
			continue
		}

		guidance, err := m.guidance(ModeDesign, c.Kind.ResourceKey())
		if err != nil {
			return stepResult{}, err
		}
		if m.generator == nil {
			continue
		}

		payload, ok, err := m.generator.GenerateDecision(ctx, *c, guidance)
		if err != nil {
			return stepResult{}, &CollaboratorError{Mode: ModeDesign, Op: "generate decision", Err: err}
		}
		if !ok {
			continue
		}

		c.Resolved = true
		c.Decision = payload
		resolved = append(resolved, *c)
		s.Artifacts.Tasks = strings.Replace(s.Artifacts.Tasks,
			"- [ ] "+c.Name, "- [x] "+c.Name, 1)
		s.Artifacts.Progress = appendLine(s.Artifacts.Progress,
			fmt.Sprintf("- Design: decision recorded for %s (%s)", c.Name, c.Kind))
	}

	if s.UnresolvedCount() == 0 {
		res := forceTransition(ModeImplement)
		res.resolved = resolved
		return res, nil
	}
	return stepResult{resolved: resolved}, nil
}

// stepImplement hands the session over to the host for building: it loads
// the implementation guidance into the active context. The actual
// implementation work happens outside the orchestrator.
func (m *Machine) stepImplement(s *SessionState) (stepResult, error) {
	if strings.TrimSpace(s.Artifacts.Tasks) == "" {
		return stepResult{}, &InvalidStateError{Mode: ModeImplement, Reason: "no tasks recorded — run PLAN first"}
	}
	guidance, err := m.guidance(ModeImplement, "implement")
	if err != nil {
		return stepResult{}, err
	}
	s.Artifacts.ActiveContext = appendSection(s.Artifacts.ActiveContext, "## Build Guidance", guidance)
	s.Artifacts.Progress = appendLine(s.Artifacts.Progress, "- Implement: build guidance loaded")
	return success(), nil
}

// stepReview records the host's reflection notes into the progress log.
func (m *Machine) stepReview(payload string, s *SessionState) (stepResult, error) {
	if strings.TrimSpace(s.Artifacts.Tasks) == "" {
		return stepResult{}, &InvalidStateError{Mode: ModeReview, Reason: "nothing to review — run PLAN first"}
	}
	guidance, err := m.guidance(ModeReview, "reflect")
	if err != nil {
		return stepResult{}, err
	}
	s.Artifacts.ActiveContext = appendSection(s.Artifacts.ActiveContext, "## Reflection Guidance", guidance)
	if strings.TrimSpace(payload) != "" {
		s.Artifacts.Progress = appendSection(s.Artifacts.Progress, "## Reflection", strings.TrimSpace(payload))
	}
	s.Artifacts.Progress = appendLine(s.Artifacts.Progress, "- Review: reflection recorded")
	return success(), nil
}

// stepArchive closes out the session: the observer persists it to history
// and the progress log gets a final marker.
func (m *Machine) stepArchive(s *SessionState) (stepResult, error) {
	if strings.TrimSpace(s.Artifacts.Progress) == "" {
		return stepResult{}, &InvalidStateError{Mode: ModeArchive, Reason: "nothing to archive — the progress log is empty"}
	}
	guidance, err := m.guidance(ModeArchive, "archive")
	if err != nil {
		return stepResult{}, err
	}
	_ = guidance // loaded for its side effect: the archive rules are warm for the host to read
	s.Artifacts.Progress = appendLine(s.Artifacts.Progress,
		fmt.Sprintf("- Archive: session archived at %s", timeNow().UTC().Format(time.RFC3339)))
	return stepResult{archived: true}, nil
}

// guidance fetches a resource from the rule cache. An unregistered key is
// a setup bug and surfaces as-is; a producer failure is a collaborator
// failure tagged with the mode.
func (m *Machine) guidance(mode Mode, key string) (string, error) {
	text, err := m.rules.Get(key)
	if err != nil {
		var unreg *rules.UnregisteredResourceError
		if errors.As(err, &unreg) {
			return "", err
		}
		return "", &CollaboratorError{Mode: mode, Op: "load resource " + key, Err: err}
	}
	return text, nil
}

// renderPlanSummary builds the tasks artifact for the plan stage.
func renderPlanSummary(level ComplexityLevel, comps []DesignComponent) string {
	var b strings.Builder
	b.WriteString("# Tasks\n\n")
	fmt.Fprintf(&b, "Complexity: level %d\n\n", int(level))
	if len(comps) == 0 {
		b.WriteString("No design components identified — proceed to IMPLEMENT when ready.\n")
		return b.String()
	}
	b.WriteString("## Design Components\n\n")
	for _, c := range comps {
		fmt.Fprintf(&b, "- [ ] %s (%s)\n", c.Name, c.Kind)
	}
	return b.String()
}

// appendLine appends a single line to a text artifact.
func appendLine(text, line string) string {
	if text == "" {
		return line + "\n"
	}
	return strings.TrimRight(text, "\n") + "\n" + line + "\n"
}

// appendSection appends a titled section to a text artifact.
func appendSection(text, title, body string) string {
	section := title + "\n\n" + strings.TrimRight(body, "\n") + "\n"
	if strings.TrimSpace(text) == "" {
		return section
	}
	return strings.TrimRight(text, "\n") + "\n\n" + section
}
