package graphql

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/idilsaglam/cloudtodo/internal/graphql/graphqltest"
	"github.com/idilsaglam/cloudtodo/internal/model"
)

func TestTodoServiceCRUD(t *testing.T) {
	srv := graphqltest.New(t)
	srv.RequireAPIKey("da2-test")
	svc := NewTodoService(NewClient(srv.URL, WithAuthorizer(APIKey("da2-test"))))
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, model.CreateTodoInput{Name: "A", Description: "B"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if !created.HasID() || created.Name != "A" || created.Description != "B" {
		t.Fatalf("unexpected created todo: %+v", created)
	}

	updated, err := svc.UpdateTodo(ctx, model.UpdateTodoInput{ID: created.ID, Name: "A2", Description: "B2"})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if updated.Name != "A2" || updated.Description != "B2" {
		t.Fatalf("unexpected updated todo: %+v", updated)
	}

	todos, err := svc.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != created.ID || todos[0].Name != "A2" {
		t.Fatalf("unexpected list: %+v", todos)
	}

	if _, err := svc.DeleteTodo(ctx, model.DeleteTodoInput{ID: created.ID}); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	if len(srv.Todos()) != 0 {
		t.Fatalf("server still has todos: %+v", srv.Todos())
	}

	for _, c := range srv.Calls() {
		if c.APIKey != "da2-test" {
			t.Fatalf("%s sent api key %q", c.Operation, c.APIKey)
		}
		if c.RequestID == "" {
			t.Fatalf("%s missing request id", c.Operation)
		}
	}
}

func TestListTodosFollowsNextToken(t *testing.T) {
	seed := []model.Todo{
		{ID: "1", Name: "one"}, {ID: "2", Name: "two"}, {ID: "3", Name: "three"},
		{ID: "4", Name: "four"}, {ID: "5", Name: "five"},
	}
	srv := graphqltest.New(t, seed...)
	srv.SetPageSize(2)
	svc := NewTodoService(NewClient(srv.URL))

	todos, err := svc.ListTodos(context.Background())
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != len(seed) {
		t.Fatalf("got %d todos, want %d", len(todos), len(seed))
	}
	for i := range seed {
		if todos[i].ID != seed[i].ID {
			t.Fatalf("todos[%d].ID=%q, want %q", i, todos[i].ID, seed[i].ID)
		}
	}
	if n := len(srv.Calls()); n != 3 {
		t.Fatalf("expected 3 page requests, got %d", n)
	}
}

func TestListTodosEmptyIsNotNil(t *testing.T) {
	srv := graphqltest.New(t)
	todos, err := NewTodoService(NewClient(srv.URL)).ListTodos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if todos == nil || len(todos) != 0 {
		t.Fatalf("todos=%#v", todos)
	}
}

func TestUserPoolTokenAuthorizer(t *testing.T) {
	srv := graphqltest.New(t)
	srv.RequireToken("jwt-value")

	token := "jwt-value"
	svc := NewTodoService(NewClient(srv.URL, WithAuthorizer(UserPoolToken(func() string { return token }))))
	if _, err := svc.ListTodos(context.Background()); err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if got := srv.Calls()[0].Authorization; got != "jwt-value" {
		t.Fatalf("authorization=%q, want raw token", got)
	}

	token = ""
	_, err := svc.ListTodos(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("err=%v, want ErrNoToken", err)
	}
}

func TestClientErrors(t *testing.T) {
	srv := graphqltest.New(t)
	svc := NewTodoService(NewClient(srv.URL))
	ctx := context.Background()

	srv.Fail("ListTodos", http.StatusInternalServerError, "boom")
	_, err := svc.ListTodos(ctx)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err=%v, want HTTPError 500", err)
	}
	if !strings.Contains(httpErr.Body, "boom") {
		t.Fatalf("body=%q", httpErr.Body)
	}

	_, err = svc.DeleteTodo(ctx, model.DeleteTodoInput{ID: "missing"})
	var gqlErrs Errors
	if !errors.As(err, &gqlErrs) {
		t.Fatalf("err=%v, want graphql Errors", err)
	}
	if gqlErrs[0].ErrorType != "DynamoDB:ConditionalCheckFailedException" {
		t.Fatalf("errorType=%q", gqlErrs[0].ErrorType)
	}
	if !strings.Contains(err.Error(), "conditional request failed") {
		t.Fatalf("message=%q", err.Error())
	}

	srv.RequireAPIKey("expected")
	_, err = svc.CreateTodo(ctx, model.CreateTodoInput{Name: "a", Description: "b"})
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err=%v, want 401", err)
	}
}

func TestDoHonoursContext(t *testing.T) {
	srv := graphqltest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewClient(srv.URL).Do(ctx, Request{Query: "{x}", OperationName: "X"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}
