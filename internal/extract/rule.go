// Package extract pulls measured values out of captured program output and
// folds repeated measurements into a single CSV cell.
package extract

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/samber/lo"
)

// NotFound is the cell value recorded when a rule has no usable match.
const NotFound = "NOT FOUND"

// Type selects the aggregation policy of a rule.
type Type string

const (
	Numerical Type = "numerical"
	Other     Type = "other"
)

var ErrNoCaptureGroup = errors.New("regex must contain a capturing group")

// ParseType maps a configured type string to a Type. Anything other than
// "numerical" keeps the last value seen.
func ParseType(s string) Type {
	if s == string(Numerical) {
		return Numerical
	}
	return Other
}

// Rule is a named regular expression whose first capturing group is the value.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Type    Type
}

func NewRule(name, pattern string, typ Type) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compile %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return Rule{}, fmt.Errorf("%q: %w", pattern, ErrNoCaptureGroup)
	}
	return Rule{Name: name, Pattern: re, Type: typ}, nil
}

// Extract returns the first capturing group of the first match in output.
func (r Rule) Extract(output string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Placeholder is the dry-run stand-in for a rule's cell.
func (r Rule) Placeholder() string { return "<" + r.Name + ">" }

// Names returns the rule names in declaration order.
func Names(rules []Rule) []string {
	return lo.Map(rules, func(r Rule, _ int) string { return r.Name })
}

// Placeholders returns one dry-run cell per rule.
func Placeholders(rules []Rule) []string {
	return lo.Map(rules, func(r Rule, _ int) string { return r.Placeholder() })
}
