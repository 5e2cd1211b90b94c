package constraints

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
)

// ValidationResult contains the results of validating a snapshot against constraints
type ValidationResult struct {
	Valid      bool // no Error-severity violations
	Violations []Violation
	CheckedAt  time.Time
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Validator manages a set of constraints and validates snapshots against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a new empty validator
func NewValidator() *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
	}
}

// NewDefaultValidator returns a validator holding every built-in constraint.
func NewDefaultValidator() *Validator {
	v := NewValidator()
	v.AddConstraints([]Constraint{
		&UniqueIdentifiers{},
		&Acyclic{},
		&SingleCrossInput{},
		&LinkKinds{},
		&TableShape{},
		&ObservedStates{},
		&Isolated{},
	})
	return v
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// AddConstraints adds multiple constraints to the validator
func (v *Validator) AddConstraints(constraints []Constraint) {
	v.constraints = append(v.constraints, constraints...)
}

// Validate runs all constraints against s.
func (v *Validator) Validate(s *Snapshot) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	for _, constraint := range v.constraints {
		violations, err := constraint.Validate(s)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", constraint.Name(), err)
		}
		for i := range violations {
			violations[i].Constraint = constraint.Name()
			if violations[i].Severity == Error {
				result.Valid = false
			}
		}
		result.Violations = append(result.Violations, violations...)
	}

	return result, nil
}

// ValidateModel captures m and validates the snapshot.
func (v *Validator) ValidateModel(m *bayesnet.Model) (*ValidationResult, error) {
	return v.Validate(Capture(m))
}

// GetConstraints returns all constraints in the validator
func (v *Validator) GetConstraints() []Constraint {
	return v.constraints
}

// ClearConstraints removes all constraints from the validator
func (v *Validator) ClearConstraints() {
	v.constraints = make([]Constraint, 0)
}
