package bayesnet

import (
	"fmt"

	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/identity"
)

// Type is a node's type. It is fixed when the node is created.
type Type int

const (
	Boolean Type = iota
	Labelled
	Ranked
	DiscreteReal
	ContinuousInterval
	IntegerInterval
)

var typeNames = [...]string{"Boolean", "Labelled", "Ranked", "DiscreteReal", "ContinuousInterval", "IntegerInterval"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType converts a type name, ignoring case.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if identity.Equal(s, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// Interval reports whether states are numeric ranges and the node can be simulated.
func (t Type) Interval() bool {
	return t == ContinuousInterval || t == IntegerInterval
}

// Numeric reports whether state labels carry numbers.
func (t Type) Numeric() bool {
	return t == DiscreteReal || t.Interval()
}

func (t Type) engineKind() engine.Kind {
	return engine.Kind(t.String())
}

// PassType is what a cross-network link threads from its source into its target.
type PassType int

const (
	PassMarginals PassType = iota
	PassMean
	PassMedian
	PassVariance
	PassStandardDeviation
	PassLowerPercentile
	PassUpperPercentile
	PassState
)

var passTypeNames = [...]string{"Marginals", "Mean", "Median", "Variance", "StandardDeviation", "LowerPercentile", "UpperPercentile", "State"}

func (p PassType) String() string {
	if p < 0 || int(p) >= len(passTypeNames) {
		return fmt.Sprintf("PassType(%d)", int(p))
	}
	return passTypeNames[p]
}

// ParsePassType converts a pass type name, ignoring case.
func ParsePassType(s string) (PassType, error) {
	for i, name := range passTypeNames {
		if identity.Equal(s, name) {
			return PassType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cross-network link type %q", s)
}

// statistic reports whether the type passes a single summary number.
func (p PassType) statistic() bool {
	return p >= PassMean && p <= PassUpperPercentile
}

// LinkKind is either Simple or CrossNetwork.
type LinkKind interface {
	linkKind()
	String() string
}

// Simple is a same-network structural edge.
type Simple struct{}

// CrossNetwork passes a value from one network into another. StatePassed names a
// source state and is set for Type == PassState only.
type CrossNetwork struct {
	Type        PassType
	StatePassed string
}

func (Simple) linkKind()       {}
func (CrossNetwork) linkKind() {}

func (Simple) String() string { return "Simple" }

func (c CrossNetwork) String() string {
	if c.StatePassed != "" {
		return fmt.Sprintf("%s(%s)", c.Type, c.StatePassed)
	}
	return c.Type.String()
}

// ParseLinkKind builds a kind from its serialized parts. An empty type means Simple.
func ParseLinkKind(passType, statePassed string) (LinkKind, error) {
	if passType == "" {
		if statePassed != "" {
			return nil, fmt.Errorf("passed state %q without a link type: %w", statePassed, ErrUnknownLinkKind)
		}
		return Simple{}, nil
	}
	p, err := ParsePassType(passType)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUnknownLinkKind)
	}
	return CrossNetwork{Type: p, StatePassed: statePassed}, nil
}
