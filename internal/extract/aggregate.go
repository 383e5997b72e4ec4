// internal/extract/aggregate.go
// Package: extract
package extract

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Accumulator folds one rule's results across the repetitions of a single
// combination.
type Accumulator interface {
	Add(value string, found bool)
	Cell() string
}

// NewAccumulator picks the policy for the rule's type.
func NewAccumulator(r Rule) Accumulator {
	if r.Type == Numerical {
		return &meanAccumulator{}
	}
	return &lastAccumulator{}
}

// meanAccumulator averages parsed values. A single miss, or a match that
// does not parse to a finite number, invalidates the whole cell.
type meanAccumulator struct {
	values  []float64
	invalid bool
}

func (m *meanAccumulator) Add(value string, found bool) {
	if m.invalid {
		return
	}
	if !found {
		m.invalid = true
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		m.invalid = true
		return
	}
	m.values = append(m.values, v)
}

func (m *meanAccumulator) Cell() string {
	if m.invalid || len(m.values) == 0 {
		return NotFound
	}
	return strconv.FormatFloat(stat.Mean(m.values, nil), 'f', -1, 64)
}

// lastAccumulator keeps only the most recent repetition's result.
type lastAccumulator struct {
	last  string
	found bool
}

func (l *lastAccumulator) Add(value string, found bool) {
	l.last, l.found = value, found
}

func (l *lastAccumulator) Cell() string {
	if !l.found {
		return NotFound
	}
	return l.last
}

// Aggregator holds one accumulator per rule for the lifetime of one
// combination's repetitions.
type Aggregator struct {
	rules []Rule
	accs  []Accumulator
}

func NewAggregator(rules []Rule) *Aggregator {
	accs := make([]Accumulator, len(rules))
	for i, r := range rules {
		accs[i] = NewAccumulator(r)
	}
	return &Aggregator{rules: rules, accs: accs}
}

// Observe applies every rule to one repetition's output.
func (g *Aggregator) Observe(output string) {
	for i, r := range g.rules {
		g.accs[i].Add(r.Extract(output))
	}
}

// Miss records a repetition that produced no output at all.
func (g *Aggregator) Miss() {
	for _, acc := range g.accs {
		acc.Add("", false)
	}
}

// Cells renders one CSV cell per rule in declaration order.
func (g *Aggregator) Cells() []string {
	out := make([]string, len(g.accs))
	for i, acc := range g.accs {
		out[i] = acc.Cell()
	}
	return out
}
