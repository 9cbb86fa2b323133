// Package connstate provides an explicit, generic state machine shared
// by the IMAP, SMTP and POP3 clients: each protocol's states are a
// distinct linear-with-gated-transitions graph over its own type, but
// the transition/hook/locking machinery is identical across all three.
package connstate

import (
	"fmt"
	"sync"
)

// TransitionHook is a function called during state transitions.
type TransitionHook[S comparable] func(from, to S) error

// Machine manages transitions between states of type S according to a
// fixed adjacency table.
type Machine[S comparable] struct {
	mu          sync.RWMutex
	state       S
	transitions map[S][]S
	beforeHooks []TransitionHook[S]
	afterHooks  []TransitionHook[S]
}

// New creates a state machine starting in initial, allowed to move
// between states per transitions (state -> allowed next states).
func New[S comparable](initial S, transitions map[S][]S) *Machine[S] {
	return &Machine[S]{state: initial, transitions: transitions}
}

// State returns the current state.
func (m *Machine[S]) State() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// BeforeTransition registers a hook run before a transition is applied;
// an error from any before-hook aborts the transition.
func (m *Machine[S]) BeforeTransition(hook TransitionHook[S]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeHooks = append(m.beforeHooks, hook)
}

// AfterTransition registers a hook run after a transition is applied.
func (m *Machine[S]) AfterTransition(hook TransitionHook[S]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterHooks = append(m.afterHooks, hook)
}

// Transition attempts to move to target, returning an error if that
// move is not allowed from the current state or a before-hook refuses it.
func (m *Machine[S]) Transition(target S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canTransition(m.state, target) {
		return fmt.Errorf("connstate: invalid transition from %v to %v", m.state, target)
	}

	from := m.state
	for _, hook := range m.beforeHooks {
		if err := hook(from, target); err != nil {
			return fmt.Errorf("connstate: before hook failed: %w", err)
		}
	}

	m.state = target

	for _, hook := range m.afterHooks {
		if err := hook(from, target); err != nil {
			return fmt.Errorf("connstate: after hook failed: %w", err)
		}
	}

	return nil
}

// Force sets the state unconditionally, bypassing the transition table
// (used to fold in state implied by the server, e.g. a PREAUTH greeting).
func (m *Machine[S]) Force(target S) {
	m.mu.Lock()
	m.state = target
	m.mu.Unlock()
}

// RequireState returns an error unless the current state is one of allowed.
func (m *Machine[S]) RequireState(allowed ...S) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("connstate: requires state in %v, currently %v", allowed, m.state)
}

func (m *Machine[S]) canTransition(from, to S) bool {
	for _, s := range m.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
