// internal/sweep/command.go
// Package: sweep
package sweep

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Separator joins CSV cells.
const Separator = ", "

// Render appends every parameter value, hidden ones included, to the
// command template in declaration order.
func Render(template string, a *Assignment) string {
	var b strings.Builder
	b.WriteString(template)
	for _, v := range a.Values() {
		b.WriteByte(' ')
		b.WriteString(FormatValue(v))
	}
	return b.String()
}

// WithTimeout prefixes command with the coreutils timeout wrapper. A
// non-positive seconds value leaves the command untouched.
func WithTimeout(command string, seconds int) string {
	if seconds <= 0 {
		return command
	}
	return "timeout " + strconv.Itoa(seconds) + " " + command
}

// Header lists the visible parameter names followed by the extract names.
func Header(s *Space, extracts []string) string {
	visible := lo.Filter(s.params, func(p Parameter, _ int) bool { return p.Output() })
	cols := lo.Map(visible, func(p Parameter, _ int) string { return p.Name() })
	return strings.Join(append(cols, extracts...), Separator)
}

// Row renders the visible parameter values followed by the extract cells.
func Row(a *Assignment, cells []string) string {
	values := a.Values()
	cols := make([]string, 0, len(values)+len(cells))
	for i, p := range a.space.params {
		if p.Output() {
			cols = append(cols, FormatValue(values[i]))
		}
	}
	return strings.Join(append(cols, cells...), Separator)
}
