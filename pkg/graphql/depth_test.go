package graphql

import (
	"context"
	"strings"
	"testing"

	"github.com/graphql-go/graphql/language/parser"
)

func TestCalculateQueryDepth(t *testing.T) {
	tests := []struct {
		name  string
		query string
		depth int
	}{
		{"scalar only", `{ model }`, 1},
		{"one level", `{ networks { id } }`, 2},
		{"nested", `{ networks { nodes { parents { id } } } }`, 4},
		{"widest branch wins", `{ model networks { id } node(network: "a", id: "b") { ancestors { descendants { id } } } }`, 4},
		{"introspection ignored", `{ __schema { types { fields { name } } } networks { id } }`, 2},
		{"inline fragment", `{ networks { ... on Network { nodes { id } } } }`, 3},
		{"named fragment", `query { networks { ...N } } fragment N on Network { nodes { children { id } } }`, 4},
		{"self referencing fragment", `query { networks { ...N } } fragment N on Network { children { ...N } }`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse(parser.ParseParams{Source: tt.query})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := calculateQueryDepth(doc); got != tt.depth {
				t.Errorf("depth = %d, want %d", got, tt.depth)
			}
		})
	}
}

func TestValidateQueryDepth(t *testing.T) {
	if err := ValidateQueryDepth(`{ networks { nodes { id } } }`, 3); err != nil {
		t.Errorf("expected depth 3 to pass, got %v", err)
	}

	err := ValidateQueryDepth(`{ networks { nodes { parents { id } } } }`, 3)
	if err == nil || !strings.Contains(err.Error(), "query depth 4 exceeds maximum allowed depth 3") {
		t.Errorf("expected depth error, got %v", err)
	}

	if err := ValidateQueryDepth(`{ networks {`, 3); err == nil || !strings.Contains(err.Error(), "failed to parse query") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestExecuteWithDepthLimit(t *testing.T) {
	schema, _ := newTestSchema(t)
	ctx := context.Background()

	result := ExecuteWithDepthLimit(ctx, schema, `{ node(network: "Supply", id: "Yield") { parents { id } } }`, 3, nil)
	if result.HasErrors() {
		t.Fatalf("shallow query failed: %v", result.Errors)
	}

	deep := `{ node(network: "Supply", id: "Yield") { parents { children { parents { id } } } } }`
	result = ExecuteWithDepthLimit(ctx, schema, deep, 3, nil)
	if !result.HasErrors() {
		t.Fatal("expected deep query to be rejected")
	}
	if result.Data != nil {
		t.Errorf("rejected query returned data: %v", result.Data)
	}
	if !strings.Contains(result.Errors[0].Message, "exceeds maximum allowed depth") {
		t.Errorf("unexpected error: %s", result.Errors[0].Message)
	}
}
