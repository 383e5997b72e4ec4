// internal/sweep/parameter.go
// Package: sweep
package sweep

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind names the advancement rule of a Parameter.
type Kind string

const (
	KindScaling Kind = "scaling"
	KindList    Kind = "list"
	KindStatic  Kind = "static"
)

// StepType selects how a scaling parameter moves from one value to the next.
type StepType string

const (
	StepAdd      StepType = "add"
	StepMultiply StepType = "multiply"
)

var (
	ErrInvalidStep  = errors.New("step would never reach max")
	ErrEmptyList    = errors.New("list must contain at least one value")
	ErrMissingValue = errors.New("static parameter requires a value")
	ErrStepType     = errors.New("unrecognized step_type")
)

// ParseStepType accepts the step_type spellings found in autorun.json files.
func ParseStepType(s string) (StepType, error) {
	switch s {
	case "add", "":
		return StepAdd, nil
	case "mult", "multiply":
		return StepMultiply, nil
	}
	return "", fmt.Errorf("%w: %q", ErrStepType, s)
}

// Parameter is one digit of the odometer.
//
// Positions are cursors into the parameter's sequence of values. Position 0
// is the reset state. Next reports false when the axis wraps back to 0 and
// the carry must move to the previous parameter.
type Parameter interface {
	Name() string
	Output() bool
	Value(pos int) any
	Next(pos int) (int, bool)
}

type base struct {
	name   string
	hidden bool
}

func (b *base) Name() string { return b.name }

// Output reports whether the parameter appears as a CSV column.
func (b *base) Output() bool { return !b.hidden }

// SetOutput controls CSV column visibility. Hidden parameters still take
// part in enumeration and command rendering.
func (b *base) SetOutput(visible bool) { b.hidden = !visible }

// Scaling walks from Min toward Max by repeatedly adding or multiplying Step.
type Scaling struct {
	base
	Min      float64
	Max      float64
	Step     float64
	StepType StepType

	places int // decimal places of Min and Step, add axes only
}

// NewScaling validates that the step rule terminates before returning the parameter.
func NewScaling(name string, min, max, step float64, stepType StepType) (*Scaling, error) {
	switch stepType {
	case StepAdd:
		if step <= 0 {
			return nil, fmt.Errorf("%w: add step must be > 0, got %v", ErrInvalidStep, step)
		}
	case StepMultiply:
		if step <= 1 {
			return nil, fmt.Errorf("%w: multiply step must be > 1, got %v", ErrInvalidStep, step)
		}
		if min <= 0 {
			return nil, fmt.Errorf("%w: multiply min must be > 0, got %v", ErrInvalidStep, min)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrStepType, stepType)
	}
	for _, v := range []float64{min, max, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite bound", ErrInvalidStep)
		}
	}
	sc := &Scaling{base: base{name: name}, Min: min, Max: max, Step: step, StepType: stepType}
	if stepType == StepAdd {
		sc.places = decimalPlaces(min)
		if p := decimalPlaces(step); p > sc.places {
			sc.places = p
		}
	}
	return sc, nil
}

// Value derives the value from the step index instead of accumulating. Add
// results are snapped to the decimal places of Min and Step, so 0.1+0.1+0.1
// is exactly 0.3 while integral axes are never rounded.
func (s *Scaling) Value(pos int) any {
	if s.StepType == StepMultiply {
		v := s.Min * math.Pow(s.Step, float64(pos))
		places := decimalPlaces(s.Min) + pos*decimalPlaces(s.Step)
		if places > maxPlaces {
			return v
		}
		return snap(v, places)
	}
	return snap(s.Min+float64(pos)*s.Step, s.places)
}

// Next steps while the current value is below Max, so the last value may
// overshoot Max by less than one step.
func (s *Scaling) Next(pos int) (int, bool) {
	if s.Value(pos).(float64) < s.Max {
		return pos + 1, true
	}
	return 0, false
}

// List cycles through an ordered set of candidate values.
type List struct {
	base
	Values []any
}

func NewList(name string, values []any) (*List, error) {
	if len(values) == 0 {
		return nil, ErrEmptyList
	}
	return &List{base: base{name: name}, Values: values}, nil
}

func (l *List) Value(pos int) any { return l.Values[pos] }

func (l *List) Next(pos int) (int, bool) {
	if pos < len(l.Values)-1 {
		return pos + 1, true
	}
	return 0, false
}

// Static is a fixed column; it never advances and always carries.
type Static struct {
	base
	Fixed any
}

func NewStatic(name string, value any) (*Static, error) {
	if value == nil {
		return nil, ErrMissingValue
	}
	return &Static{base: base{name: name}, Fixed: value}, nil
}

func (s *Static) Value(int) any { return s.Fixed }

func (s *Static) Next(int) (int, bool) { return 0, false }

// maxPlaces caps snapping; beyond it float64 has no decimal digits to spare.
const maxPlaces = 15

// decimalPlaces counts the digits after the point in the shortest decimal
// form of v.
func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return min(len(s)-i-1, maxPlaces)
}

// snap rounds v to places decimal digits.
func snap(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatValue renders a parameter value the way it appears on the command
// line and in CSV rows. Numbers use their shortest plain decimal form and are
// never rounded.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
