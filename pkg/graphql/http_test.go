package graphql

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, GraphQLResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var response GraphQLResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
	}
	return rr, response
}

func TestGraphQLHandler_Post(t *testing.T) {
	schema, _ := newTestSchema(t)
	handler := NewGraphQLHandler(schema, 0, nil)

	body, _ := json.Marshal(GraphQLRequest{
		Query:     `query($n: String!) { network(id: $n) { nodes { id } } }`,
		Variables: map[string]any{"n": "Demand"},
	})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr, response := serve(t, handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if len(response.Errors) > 0 {
		t.Fatalf("response has errors: %v", response.Errors)
	}

	data, _ := json.Marshal(response.Data)
	if want := `{"network":{"nodes":[{"id":"Price"}]}}`; string(data) != want {
		t.Errorf("data = %s, want %s", data, want)
	}
}

func TestGraphQLHandler_Get(t *testing.T) {
	schema, _ := newTestSchema(t)
	handler := NewGraphQLHandler(schema, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ model }`), nil)
	rr, response := serve(t, handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	data, _ := json.Marshal(response.Data)
	if string(data) != `{"model":"inspect"}` {
		t.Errorf("data = %s", data)
	}
}

func TestGraphQLHandler_DepthLimit(t *testing.T) {
	schema, _ := newTestSchema(t)
	handler := NewGraphQLHandler(schema, 2, nil)

	q := url.QueryEscape(`{ networks { nodes { id } } }`)
	_, response := serve(t, handler, httptest.NewRequest(http.MethodGet, "/graphql?query="+q, nil))
	if len(response.Errors) != 1 || !strings.Contains(response.Errors[0].Message, "exceeds maximum allowed depth 2") {
		t.Errorf("expected depth error, got %+v", response.Errors)
	}
	if response.Data != nil {
		t.Errorf("expected no data, got %v", response.Data)
	}
}

func TestGraphQLHandler_BadRequests(t *testing.T) {
	schema, _ := newTestSchema(t)
	handler := NewGraphQLHandler(schema, 0, nil)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"method", httptest.NewRequest(http.MethodDelete, "/graphql", nil), http.StatusMethodNotAllowed},
		{"body", httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{")), http.StatusBadRequest},
		{"empty query", httptest.NewRequest(http.MethodGet, "/graphql", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := serve(t, handler, tt.req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestGraphQLHandler_QueryErrors(t *testing.T) {
	schema, _ := newTestSchema(t)
	handler := NewGraphQLHandler(schema, 0, nil)

	q := url.QueryEscape(`{ networks { bogus } }`)
	rr, response := serve(t, handler, httptest.NewRequest(http.MethodGet, "/graphql?query="+q, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(response.Errors) == 0 {
		t.Fatal("expected a validation error")
	}
}
