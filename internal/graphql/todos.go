package graphql

import (
	"context"
	"fmt"

	"github.com/idilsaglam/cloudtodo/internal/model"
)

// Documents as generated from the Todo schema.
const (
	listTodosQuery = `query ListTodos($filter: ModelTodoFilterInput, $limit: Int, $nextToken: String) {
  listTodos(filter: $filter, limit: $limit, nextToken: $nextToken) {
    items {
      id
      name
      description
      createdAt
      updatedAt
    }
    nextToken
  }
}`

	createTodoMutation = `mutation CreateTodo($input: CreateTodoInput!, $condition: ModelTodoConditionInput) {
  createTodo(input: $input, condition: $condition) {
    id
    name
    description
    createdAt
    updatedAt
  }
}`

	updateTodoMutation = `mutation UpdateTodo($input: UpdateTodoInput!, $condition: ModelTodoConditionInput) {
  updateTodo(input: $input, condition: $condition) {
    id
    name
    description
    createdAt
    updatedAt
  }
}`

	deleteTodoMutation = `mutation DeleteTodo($input: DeleteTodoInput!, $condition: ModelTodoConditionInput) {
  deleteTodo(input: $input, condition: $condition) {
    id
    name
    description
    createdAt
    updatedAt
  }
}`
)

// pageSize is the limit sent with each listTodos page.
const pageSize = 100

// TodoService runs the todo operations over a Client.
type TodoService struct {
	client *Client
}

func NewTodoService(c *Client) *TodoService {
	return &TodoService{client: c}
}

// ListTodos returns every todo, following nextToken across pages.
func (s *TodoService) ListTodos(ctx context.Context) ([]model.Todo, error) {
	todos := []model.Todo{}
	var next *string
	for {
		vars := map[string]any{"limit": pageSize}
		if next != nil {
			vars["nextToken"] = *next
		}
		var data struct {
			ListTodos struct {
				Items     []model.Todo `json:"items"`
				NextToken *string      `json:"nextToken"`
			} `json:"listTodos"`
		}
		err := s.client.Do(ctx, Request{Query: listTodosQuery, Variables: vars, OperationName: "ListTodos"}, &data)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		todos = append(todos, data.ListTodos.Items...)
		next = data.ListTodos.NextToken
		if next == nil || *next == "" {
			return todos, nil
		}
	}
}

func (s *TodoService) CreateTodo(ctx context.Context, in model.CreateTodoInput) (model.Todo, error) {
	var data struct {
		CreateTodo model.Todo `json:"createTodo"`
	}
	err := s.client.Do(ctx, Request{Query: createTodoMutation, Variables: map[string]any{"input": in}, OperationName: "CreateTodo"}, &data)
	if err != nil {
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return data.CreateTodo, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, in model.UpdateTodoInput) (model.Todo, error) {
	var data struct {
		UpdateTodo model.Todo `json:"updateTodo"`
	}
	err := s.client.Do(ctx, Request{Query: updateTodoMutation, Variables: map[string]any{"input": in}, OperationName: "UpdateTodo"}, &data)
	if err != nil {
		return model.Todo{}, fmt.Errorf("update todo %s: %w", in.ID, err)
	}
	return data.UpdateTodo, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, in model.DeleteTodoInput) (model.Todo, error) {
	var data struct {
		DeleteTodo model.Todo `json:"deleteTodo"`
	}
	err := s.client.Do(ctx, Request{Query: deleteTodoMutation, Variables: map[string]any{"input": in}, OperationName: "DeleteTodo"}, &data)
	if err != nil {
		return model.Todo{}, fmt.Errorf("delete todo %s: %w", in.ID, err)
	}
	return data.DeleteTodo, nil
}
