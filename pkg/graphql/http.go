package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/graphql-go/graphql"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLHandler serves read-only queries over HTTP. Both GET with a query
// parameter and POST with a JSON body are accepted.
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
	log      logging.Logger
}

// NewGraphQLHandler creates a handler. maxDepth <= 0 means DefaultMaxDepth; a
// nil logger discards.
func NewGraphQLHandler(schema graphql.Schema, maxDepth int, log logging.Logger) *GraphQLHandler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &GraphQLHandler{schema: schema, maxDepth: maxDepth, log: log}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req GraphQLRequest
	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.Query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}

	result := ExecuteWithDepthLimit(r.Context(), h.schema, req.Query, h.maxDepth, req.Variables)

	response := GraphQLResponse{Data: result.Data}
	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{Message: err.Message}
		}
		h.log.Debug("graphql query failed",
			logging.String("query", req.Query),
			logging.Int("errors", len(result.Errors)),
			logging.String("first_error", result.Errors[0].Message))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Warn("failed to write graphql response", logging.Error(err))
	}
}
