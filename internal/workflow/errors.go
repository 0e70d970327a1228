package workflow

import "fmt"

// --- Error taxonomy ---
//
// UnknownCommandError  — user-visible, non-fatal; the caller reprompts.
// InvalidStateError    — a mode's preconditions on the session are violated;
//                        fatal to the current run (workflow-integrity bug).
// CollaboratorError    — wraps a classifier/generator/resource failure with
//                        the mode it occurred in; the session stays as of the
//                        last committed step so the caller can retry.
//
// The rule cache has its own UnregisteredResourceError (see internal/rules).

// UnknownCommandError is returned when the router cannot resolve a token.
type UnknownCommandError struct {
	Token string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Token)
}

// InvalidStateError is returned when a mode's step is invoked with a
// session that violates the step's preconditions.
type InvalidStateError struct {
	Mode   Mode
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state in %s: %s", e.Mode, e.Reason)
}

// CollaboratorError wraps a failure from an external collaborator
// (classifier, component identifier, design generator, resource producer)
// tagged with the mode in which it occurred.
type CollaboratorError struct {
	Mode Mode
	Op   string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed in %s: %v", e.Op, e.Mode, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
