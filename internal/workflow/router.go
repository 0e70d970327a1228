package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// --- Command router ---
//
// Two token namespaces map to modes:
//
//  1. Canonical commands — the memory-bank command vocabulary (VAN, PLAN,
//     CREATIVE, ...), matched case-insensitively against their canonical form.
//  2. Aliases — exact-match tokens registered at construction time. Every
//     mode name is always present as an identity alias; extra aliases come
//     from configuration. An alias is its own token, not a case variant of
//     the canonical command.
//
// The router is append-only during construction and immutable afterwards.

// canonicalCommands maps the uppercase canonical command for each mode.
var canonicalCommands = map[string]Mode{
	"VAN":       ModeInit,
	"PLAN":      ModePlan,
	"CREATIVE":  ModeDesign,
	"IMPLEMENT": ModeImplement,
	"REFLECT":   ModeReview,
	"ARCHIVE":   ModeArchive,
}

// Router resolves command tokens to canonical modes.
type Router struct {
	aliases map[string]Mode
}

// NewRouter builds a router with the canonical commands, the identity
// aliases for every mode name, and any extra aliases. An extra alias may
// not shadow an existing alias with a different target mode.
func NewRouter(extra map[string]Mode) (*Router, error) {
	r := &Router{aliases: make(map[string]Mode, len(validModes)+len(extra))}

	// Identity aliasing: every canonical mode name resolves to its mode.
	for m := range validModes {
		r.aliases[string(m)] = m
	}

	for token, mode := range extra {
		if err := r.register(token, mode); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register adds one alias during construction.
func (r *Router) register(token string, mode Mode) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("alias token must not be empty")
	}
	if !validModes[mode] {
		return fmt.Errorf("alias %q targets invalid mode %q", token, mode)
	}
	if existing, ok := r.aliases[token]; ok && existing != mode {
		return fmt.Errorf("alias %q already maps to %s, cannot remap to %s", token, existing, mode)
	}
	r.aliases[token] = mode
	return nil
}

// Resolve maps an input token to its canonical mode. Aliases are tried
// first (exact match), then the canonical commands (case-insensitive).
// Fails with UnknownCommandError when the token is not registered.
func (r *Router) Resolve(token string) (Mode, error) {
	if mode, ok := r.aliases[token]; ok {
		return mode, nil
	}
	if mode, ok := canonicalCommands[strings.ToUpper(token)]; ok {
		return mode, nil
	}
	return "", &UnknownCommandError{Token: token}
}

// Commands returns the canonical command for each mode, sorted, for
// help and error messages.
func (r *Router) Commands() []string {
	cmds := make([]string, 0, len(canonicalCommands))
	for c := range canonicalCommands {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	return cmds
}
