package media

import (
	"fmt"
	"sync"

	"guestbook-server/internal/infrastructure/storage"
)

// Stack pairs a storage backend with the metadata index that catalogs it.
// Each backend has exactly one index document.
type Stack struct {
	Backend storage.Backend
	Index   Index
}

// Selector holds the configured stacks and the currently active choice. The
// choice is injected at startup and can be flipped at runtime; subsequent
// requests observe the new backend without a process restart.
type Selector struct {
	mu      sync.RWMutex
	stacks  map[string]Stack
	order   []string
	current string
}

// NewSelector creates a selector over the given stacks with initial active.
func NewSelector(initial string, stacks map[string]Stack) (*Selector, error) {
	if len(stacks) == 0 {
		return nil, fmt.Errorf("no storage stacks configured")
	}
	if _, ok := stacks[initial]; !ok {
		return nil, fmt.Errorf("unknown storage backend %q", initial)
	}
	order := make([]string, 0, len(stacks))
	for _, name := range []string{"local", "s3"} {
		if _, ok := stacks[name]; ok {
			order = append(order, name)
		}
	}
	for name := range stacks {
		if name != "local" && name != "s3" {
			order = append(order, name)
		}
	}
	return &Selector{stacks: stacks, order: order, current: initial}, nil
}

// Current returns the active stack.
func (s *Selector) Current() Stack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stacks[s.current]
}

// CurrentName returns the active backend name.
func (s *Selector) CurrentName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Use activates the named backend.
func (s *Selector) Use(name string) (Stack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack, ok := s.stacks[name]
	if !ok {
		return Stack{}, fmt.Errorf("unknown storage backend %q", name)
	}
	s.current = name
	return stack, nil
}

// Toggle advances to the next configured backend and returns the previous
// and new names.
func (s *Selector) Toggle() (previous, current string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.current
	for i, name := range s.order {
		if name == s.current {
			s.current = s.order[(i+1)%len(s.order)]
			break
		}
	}
	return previous, s.current
}
