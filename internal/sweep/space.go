// Package sweep enumerates every combination of a set of heterogeneous
// parameters in mixed-radix order and renders each combination into a
// command line and a CSV row.
package sweep

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySpace    = errors.New("at least one parameter is required")
	ErrDuplicateName = errors.New("duplicate parameter name")
)

// Space owns the parameter definitions in declaration order.
type Space struct {
	params []Parameter
}

func NewSpace(params []Parameter) (*Space, error) {
	if len(params) == 0 {
		return nil, ErrEmptySpace
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, p.Name())
		}
		seen[p.Name()] = true
	}
	return &Space{params: params}, nil
}

// Parameters returns the definitions in declaration order.
func (s *Space) Parameters() []Parameter { return s.params }

// Assignment is the current value of every parameter in a Space. Only the
// Space that created it advances it.
type Assignment struct {
	space *Space
	pos   []int
}

// Initialize returns the first combination: every parameter at position 0.
func (s *Space) Initialize() *Assignment {
	return &Assignment{space: s, pos: make([]int, len(s.params))}
}

// Advance moves a to the next combination. The last declared parameter is
// the least significant digit. It returns false once every digit has
// carried, which leaves a back at the initial combination.
func (s *Space) Advance(a *Assignment) bool {
	for i := len(s.params) - 1; i >= 0; i-- {
		next, ok := s.params[i].Next(a.pos[i])
		a.pos[i] = next
		if ok {
			return true
		}
	}
	return false
}

// Seek advances a up to n times and returns how many advances succeeded.
// A result below n means the space ran out.
func (s *Space) Seek(a *Assignment, n int) int {
	for i := 0; i < n; i++ {
		if !s.Advance(a) {
			return i
		}
	}
	return n
}

// Count walks a fresh assignment to exhaustion.
func (s *Space) Count() int {
	a := s.Initialize()
	count := 1
	for s.Advance(a) {
		count++
	}
	return count
}

// Values returns the current values in declaration order.
func (a *Assignment) Values() []any {
	out := make([]any, len(a.pos))
	for i, p := range a.space.params {
		out[i] = p.Value(a.pos[i])
	}
	return out
}

// Map snapshots the assignment keyed by parameter name.
func (a *Assignment) Map() map[string]any {
	out := make(map[string]any, len(a.pos))
	for i, p := range a.space.params {
		out[p.Name()] = p.Value(a.pos[i])
	}
	return out
}
