package bayesnet

import (
	"fmt"
	"math"
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
	"github.com/shopspring/decimal"
)

// State is one state of a node. Numeric nodes carry either a value or a
// [Lower, Upper) range parsed from the label.
type State struct {
	Label    string
	Value    float64
	HasValue bool
	Lower    float64
	Upper    float64
	HasRange bool
}

// rangeSeparator splits "lower - upper". The spaces keep negative bounds intact.
const rangeSeparator = " - "

// DefaultStates returns the states a new node of type t starts with.
func DefaultStates(t Type) []string {
	switch t {
	case Ranked:
		return []string{"Low", "Medium", "High"}
	case DiscreteReal:
		return []string{"0", "1"}
	case ContinuousInterval, IntegerInterval:
		return []string{"-Infinity - 0", "0 - Infinity"}
	default:
		return []string{"False", "True"}
	}
}

// ParseStates checks labels against the rules of type t and parses numbers.
func ParseStates(t Type, labels []string) ([]State, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no states: %w", ErrInvalidStates)
	}
	if t == Boolean && len(labels) != 2 {
		return nil, fmt.Errorf("boolean node needs exactly 2 states, got %d: %w", len(labels), ErrInvalidStates)
	}

	seen := make(map[string]struct{}, len(labels))
	states := make([]State, len(labels))
	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("state %d has an empty label: %w", i, ErrInvalidStates)
		}
		key := identity.Normalize(label)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("state %q appears twice: %w", label, ErrInvalidStates)
		}
		seen[key] = struct{}{}

		s, err := parseState(t, label)
		if err != nil {
			return nil, fmt.Errorf("state %q: %v: %w", label, err, ErrInvalidStates)
		}
		states[i] = s
	}
	return states, nil
}

func parseState(t Type, label string) (State, error) {
	s := State{Label: label}
	switch {
	case t == DiscreteReal:
		v, err := parseBound(label)
		if err != nil {
			return s, err
		}
		if v.inf != 0 {
			return s, fmt.Errorf("a discrete value cannot be infinite")
		}
		s.Value, s.HasValue = v.InexactFloat64(), true

	case t.Interval():
		if lo, hi, ok := strings.Cut(label, rangeSeparator); ok {
			lower, err := parseBound(lo)
			if err != nil {
				return s, err
			}
			upper, err := parseBound(hi)
			if err != nil {
				return s, err
			}
			if !lower.less(upper) {
				return s, fmt.Errorf("lower bound %s is not below upper bound %s", lo, hi)
			}
			s.Lower, s.Upper, s.HasRange = lower.InexactFloat64(), upper.InexactFloat64(), true
			return s, nil
		}
		v, err := parseBound(label)
		if err != nil {
			return s, err
		}
		if v.inf != 0 {
			return s, fmt.Errorf("a single value cannot be infinite")
		}
		if t == IntegerInterval && !v.d.IsInteger() {
			return s, fmt.Errorf("integer interval value %s is not an integer", label)
		}
		s.Value, s.HasValue = v.InexactFloat64(), true
	}
	return s, nil
}

// bound is a decimal or ±Infinity.
type bound struct {
	d   decimal.Decimal
	inf int // -1, 0, +1
}

func parseBound(s string) (bound, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "infinity", "+infinity", "inf":
		return bound{inf: 1}, nil
	case "-infinity", "-inf":
		return bound{inf: -1}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return bound{}, fmt.Errorf("%q is not a number", s)
	}
	return bound{d: d}, nil
}

func (b bound) less(o bound) bool {
	if b.inf != 0 || o.inf != 0 {
		return b.inf < o.inf
	}
	return b.d.LessThan(o.d)
}

func (b bound) InexactFloat64() float64 {
	if b.inf != 0 {
		return math.Inf(b.inf)
	}
	return b.d.InexactFloat64()
}

func labelsOf(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Label
	}
	return out
}

func stateIndex(states []State, label string) int {
	for i, s := range states {
		if identity.Equal(s.Label, label) {
			return i
		}
	}
	return -1
}

func engineStates(states []State) []engine.StateSpec {
	out := make([]engine.StateSpec, len(states))
	for i, s := range states {
		out[i] = engine.StateSpec{
			Label:    s.Label,
			Value:    s.Value,
			HasValue: s.HasValue,
			Lower:    s.Lower,
			Upper:    s.Upper,
			HasRange: s.HasRange,
		}
	}
	return out
}
