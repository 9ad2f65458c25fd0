// Package graphqltest provides an in-memory GraphQL todo endpoint for tests.
// It understands the four todo operations by operation name, not by parsing
// the documents.
package graphqltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/idilsaglam/cloudtodo/internal/model"
)

// Call records one request the server received.
type Call struct {
	Operation     string
	RequestID     string
	APIKey        string
	Authorization string
	Variables     map[string]json.RawMessage
}

// Server is a fake GraphQL API backed by a slice.
type Server struct {
	URL string

	mu       sync.Mutex
	apiKey   string
	token    string
	pageSize int
	todos    []model.Todo
	calls    []Call
	failures map[string]failure
	srv      *httptest.Server
}

type failure struct {
	status  int
	message string
}

// New starts a server and closes it when the test ends.
func New(t testing.TB, seed ...model.Todo) *Server {
	t.Helper()
	s := &Server{failures: map[string]failure{}}
	s.todos = append(s.todos, seed...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/graphql", s.handle)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL + "/graphql"
	t.Cleanup(s.srv.Close)
	return s
}

// RequireAPIKey rejects requests whose x-api-key differs from key.
func (s *Server) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// RequireToken rejects requests whose Authorization differs from token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetPageSize caps listTodos pages; 0 means unlimited.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// Fail makes operation respond with an HTTP status (status != 200) or with
// a GraphQL error (status == 200).
func (s *Server) Fail(operation string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[operation] = failure{status: status, message: message}
}

// Todos returns a copy of the server-side list.
func (s *Server) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo(nil), s.todos...)
}

// Calls returns a copy of the request log.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

type request struct {
	Query         string                     `json:"query"`
	OperationName string                     `json:"operationName"`
	Variables     map[string]json.RawMessage `json:"variables"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Operation:     req.OperationName,
		RequestID:     r.Header.Get("X-Request-Id"),
		APIKey:        r.Header.Get("x-api-key"),
		Authorization: r.Header.Get("Authorization"),
		Variables:     req.Variables,
	})

	if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": []map[string]string{{"errorType": "UnauthorizedException", "message": "You are not authorized to make this call."}}})
		return
	}
	if s.token != "" && r.Header.Get("Authorization") != s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": []map[string]string{{"errorType": "UnauthorizedException", "message": "Valid authorization header not provided."}}})
		return
	}
	if f, ok := s.failures[req.OperationName]; ok {
		if f.status != http.StatusOK {
			http.Error(w, f.message, f.status)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": nil, "errors": []map[string]string{{"message": f.message}}})
		return
	}

	switch req.OperationName {
	case "ListTodos":
		s.list(w, req)
	case "CreateTodo":
		s.create(w, req)
	case "UpdateTodo":
		s.update(w, req)
	case "DeleteTodo":
		s.delete(w, req)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"errors": []map[string]string{{"message": "unknown operation " + req.OperationName}}})
	}
}

func (s *Server) list(w http.ResponseWriter, req request) {
	start := 0
	if raw, ok := req.Variables["nextToken"]; ok {
		var tok string
		_ = json.Unmarshal(raw, &tok)
		start, _ = strconv.Atoi(tok)
	}
	end := len(s.todos)
	if s.pageSize > 0 && start+s.pageSize < end {
		end = start + s.pageSize
	}
	if start > end {
		start = end
	}
	var next any
	if end < len(s.todos) {
		next = strconv.Itoa(end)
	}
	items := append([]model.Todo{}, s.todos[start:end]...)
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"listTodos": map[string]any{"items": items, "nextToken": next}}})
}

func (s *Server) create(w http.ResponseWriter, req request) {
	var in model.CreateTodoInput
	if err := json.Unmarshal(req.Variables["input"], &in); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"errors": []map[string]string{{"message": err.Error()}}})
		return
	}
	now := time.Now().UTC()
	todo := model.Todo{ID: uuid.NewString(), Name: in.Name, Description: in.Description, CreatedAt: now, UpdatedAt: now}
	s.todos = append(s.todos, todo)
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"createTodo": todo}})
}

func (s *Server) update(w http.ResponseWriter, req request) {
	var in model.UpdateTodoInput
	_ = json.Unmarshal(req.Variables["input"], &in)
	for i := range s.todos {
		if s.todos[i].ID == in.ID {
			s.todos[i].Name = in.Name
			s.todos[i].Description = in.Description
			s.todos[i].UpdatedAt = time.Now().UTC()
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updateTodo": s.todos[i]}})
			return
		}
	}
	conditionalFailed(w, "updateTodo")
}

func (s *Server) delete(w http.ResponseWriter, req request) {
	var in model.DeleteTodoInput
	_ = json.Unmarshal(req.Variables["input"], &in)
	for i := range s.todos {
		if s.todos[i].ID == in.ID {
			gone := s.todos[i]
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleteTodo": gone}})
			return
		}
	}
	conditionalFailed(w, "deleteTodo")
}

func conditionalFailed(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   map[string]any{field: nil},
		"errors": []map[string]any{{"path": []string{field}, "errorType": "DynamoDB:ConditionalCheckFailedException", "message": "The conditional request failed"}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
