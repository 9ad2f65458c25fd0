// Package todo holds the client-side todo list and create form, and turns
// user actions into optimistic local edits plus remote GraphQL calls.
//
// A Controller is owned by one goroutine (the Bubble Tea update loop, or
// a CLI command). Remote calls are handed back as tea.Cmd values so the
// runtime can run them concurrently; their results come back through
// Handle. Failed calls are logged and never rolled back, so local and
// remote state may diverge until the next LoadAll.
package todo

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/cloudtodo/internal/model"
)

// API is the remote side of the controller.
type API interface {
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in model.CreateTodoInput) (model.Todo, error)
	UpdateTodo(ctx context.Context, in model.UpdateTodoInput) (model.Todo, error)
	DeleteTodo(ctx context.Context, in model.DeleteTodoInput) (model.Todo, error)
}

// State is the load state of the list.
type State int

const (
	Loading State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "loading"
}

// Op names a remote mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// LoadedMsg carries the result of LoadAll.
type LoadedMsg struct {
	Todos []model.Todo
	Err   error
}

// MutationResultMsg carries the result of a create, update or delete.
type MutationResultMsg struct {
	Op   Op
	ID   string     // target id; empty for create
	Todo model.Todo // server response on success
	Err  error
}

type Controller struct {
	ctx    context.Context
	api    API
	logger *slog.Logger

	todos []model.Todo
	form  model.FormState
	state State
}

// New returns a controller in the Loading state. ctx bounds every remote call.
func New(ctx context.Context, api API, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{ctx: ctx, api: api, logger: logger, todos: []model.Todo{}}
}

// Todos returns a copy of the list in display order.
func (c *Controller) Todos() []model.Todo {
	return append([]model.Todo(nil), c.todos...)
}

func (c *Controller) Form() model.FormState { return c.form }
func (c *Controller) State() State          { return c.state }

// SetField applies a typed form update.
func (c *Controller) SetField(u model.FieldUpdate) {
	c.form = c.form.With(u)
}

// LoadAll fetches the whole collection. Handle applies the result.
func (c *Controller) LoadAll() tea.Cmd {
	ctx, api := c.ctx, c.api
	return func() tea.Msg {
		todos, err := api.ListTodos(ctx)
		return LoadedMsg{Todos: todos, Err: err}
	}
}

// Submit creates a todo from the form.
func (c *Controller) Submit() tea.Cmd {
	return c.Create(c.form.Name, c.form.Description)
}

// Create appends an optimistic record without an id, clears the form and
// returns the remote create. It returns nil and changes nothing when either
// field is empty.
func (c *Controller) Create(name, description string) tea.Cmd {
	if name == "" || description == "" {
		return nil
	}
	c.todos = append(c.todos, model.Todo{Name: name, Description: description})
	c.form = model.FormState{}

	ctx, api := c.ctx, c.api
	in := model.CreateTodoInput{Name: name, Description: description}
	return func() tea.Msg {
		todo, err := api.CreateTodo(ctx, in)
		return MutationResultMsg{Op: OpCreate, Todo: todo, Err: err}
	}
}

// Remove drops every record with the given id, keeping the rest in order,
// and returns the remote delete. An empty id matches all unsynced records.
func (c *Controller) Remove(id string) tea.Cmd {
	kept := make([]model.Todo, 0, len(c.todos))
	for _, t := range c.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.todos = kept

	ctx, api := c.ctx, c.api
	return func() tea.Msg {
		todo, err := api.DeleteTodo(ctx, model.DeleteTodoInput{ID: id})
		return MutationResultMsg{Op: OpDelete, ID: id, Todo: todo, Err: err}
	}
}

// Update rewrites name and description of matching records in place and
// returns the remote update.
func (c *Controller) Update(id, name, description string) tea.Cmd {
	next := make([]model.Todo, len(c.todos))
	for i, t := range c.todos {
		if t.ID == id {
			t.Name = name
			t.Description = description
		}
		next[i] = t
	}
	c.todos = next

	ctx, api := c.ctx, c.api
	in := model.UpdateTodoInput{ID: id, Name: name, Description: description}
	return func() tea.Msg {
		todo, err := api.UpdateTodo(ctx, in)
		return MutationResultMsg{Op: OpUpdate, ID: id, Todo: todo, Err: err}
	}
}

// Handle applies a controller message and reports whether msg was one.
func (c *Controller) Handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LoadedMsg:
		c.state = Loaded
		if msg.Err != nil {
			c.logger.Error("error fetching todos", "error", msg.Err)
			return true
		}
		c.todos = append([]model.Todo{}, msg.Todos...)
		c.logger.Debug("todos loaded", "count", len(msg.Todos))
		return true

	case MutationResultMsg:
		if msg.Err != nil {
			c.logger.Error("error "+opVerb(msg.Op)+" todo", "id", msg.ID, "error", msg.Err)
			return true
		}
		if msg.Op == OpCreate && msg.Todo.HasID() && !c.has(msg.Todo.ID) {
			// The optimistic record keeps an empty id until the next LoadAll.
			c.logger.Warn("created todo not reconciled with local list", "id", msg.Todo.ID, "name", msg.Todo.Name)
			return true
		}
		c.logger.Debug("todo "+string(msg.Op)+" done", "id", msg.ID)
		return true
	}
	return false
}

func (c *Controller) has(id string) bool {
	for _, t := range c.todos {
		if t.ID == id {
			return true
		}
	}
	return false
}

func opVerb(op Op) string {
	switch op {
	case OpCreate:
		return "creating"
	case OpUpdate:
		return "updating"
	case OpDelete:
		return "deleting"
	}
	return string(op)
}
