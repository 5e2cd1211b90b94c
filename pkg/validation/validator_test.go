package validation

import (
	"errors"
	"strings"
	"testing"
)

// TestValidateIdentifier tests identifier validation
func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		expectError bool
	}{
		{name: "Simple", id: "Demand", expectError: false},
		{name: "Underscore prefix", id: "_hidden", expectError: false},
		{name: "Digits after first", id: "node42", expectError: false},
		{name: "Mixed", id: "Supply_Chain_2", expectError: false},
		{name: "Empty", id: "", expectError: true},
		{name: "Leading digit", id: "1node", expectError: true},
		{name: "Space", id: "my node", expectError: true},
		{name: "Hyphen", id: "my-node", expectError: true},
		{name: "Dot", id: "net.node", expectError: true},
		{name: "Non-ASCII", id: "nœud", expectError: true},
		{name: "Max length", id: strings.Repeat("a", MaxIdentifierLength), expectError: false},
		{name: "Too long", id: strings.Repeat("a", MaxIdentifierLength+1), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if tt.expectError && err == nil {
				t.Errorf("Expected error for %q, got nil", tt.id)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error for %q, got: %v", tt.id, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Expected ErrInvalidIdentifier, got: %v", err)
			}
		})
	}
}

type testNode struct {
	ID     string   `validate:"required,identifier"`
	Type   string   `validate:"required,oneof=Boolean Labelled"`
	States []string `validate:"max=3"`
}

type testNetwork struct {
	ID    string     `validate:"required,identifier"`
	Nodes []testNode `validate:"dive"`
}

// TestValidateStruct tests struct tag validation including the identifier tag
func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		errorField string
	}{
		{
			name:  "Valid",
			value: &testNetwork{ID: "Net", Nodes: []testNode{{ID: "A", Type: "Boolean"}}},
		},
		{
			name:       "Missing ID",
			value:      &testNetwork{Nodes: []testNode{{ID: "A", Type: "Boolean"}}},
			errorField: "testNetwork.ID",
		},
		{
			name:       "Bad identifier",
			value:      &testNetwork{ID: "bad id"},
			errorField: "is not a valid identifier",
		},
		{
			name:       "Nested bad identifier",
			value:      &testNetwork{ID: "Net", Nodes: []testNode{{ID: "9A", Type: "Boolean"}}},
			errorField: "Nodes[0].ID",
		},
		{
			name:       "Bad oneof",
			value:      &testNetwork{ID: "Net", Nodes: []testNode{{ID: "A", Type: "Ranked"}}},
			errorField: "must be one of",
		},
		{
			name:       "Too many states",
			value:      &testNetwork{ID: "Net", Nodes: []testNode{{ID: "A", Type: "Labelled", States: []string{"a", "b", "c", "d"}}}},
			errorField: "must not exceed 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.value)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errorField)
			}
			if !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("Expected error containing %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidateStruct_Nil(t *testing.T) {
	if err := ValidateStruct(nil); err == nil {
		t.Error("Expected error for nil value")
	}
}
