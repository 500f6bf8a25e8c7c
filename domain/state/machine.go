// Package state implements the per-aggregate lifecycle state machines: an
// explicit transition table per aggregate type, consulted by domain/command
// before any event is emitted. It never panics on illegal input; an illegal
// transition is reported through internal/xerrors.
package state

import "github.com/cowboyai/genesis-issuer/internal/xerrors"

// State is a named lifecycle state for some aggregate type.
type State string

// Machine is an explicit transition table for one aggregate type: the set of
// states reachable from each state, and which states are terminal.
type Machine struct {
	aggregateType string
	transitions   map[State]map[State]bool
	terminal      map[State]bool
}

// NewMachine builds a Machine from an adjacency table (from -> allowed targets)
// and an explicit terminal-state set.
func NewMachine(aggregateType string, transitions map[State][]State, terminal []State) *Machine {
	adj := make(map[State]map[State]bool, len(transitions))
	for from, tos := range transitions {
		set := make(map[State]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		adj[from] = set
	}
	term := make(map[State]bool, len(terminal))
	for _, s := range terminal {
		term[s] = true
	}
	return &Machine{aggregateType: aggregateType, transitions: adj, terminal: term}
}

// IsTerminal reports whether s is a terminal state: no transition out of it
// is ever legal, regardless of what the adjacency table says.
func (m *Machine) IsTerminal(s State) bool {
	return m.terminal[s]
}

// CanTransitionTo reports whether from -> to is a legal transition.
func (m *Machine) CanTransitionTo(from, to State) bool {
	if m.IsTerminal(from) {
		return false
	}
	return m.transitions[from][to]
}

// Transition validates from -> to and returns to, or an InvalidStateTransition
// error carrying the current/target diagnostic.
func (m *Machine) Transition(from, to State) (State, error) {
	if !m.CanTransitionTo(from, to) {
		return from, xerrors.InvalidStateTransition(m.aggregateType, string(from), string(to))
	}
	return to, nil
}
