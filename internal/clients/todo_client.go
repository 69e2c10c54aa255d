package clients

import (
	"context"
	"fmt"
	"net/http"

	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

type TodoClient interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id int64) (*domain.Todo, error)
	Create(ctx context.Context, task string) (*domain.Todo, error)
	Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error)
	Remove(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (*domain.Todo, error)
}

type todoHTTPClient struct {
	api Sender
	log *logrus.Logger
}

func NewTodoHTTPClient(api Sender, logger *logrus.Logger) TodoClient {
	return &todoHTTPClient{
		api: api,
		log: logger,
	}
}

type createTodoRequest struct {
	Task string `json:"task"`
}

func (c *todoHTTPClient) List(ctx context.Context) ([]domain.Todo, error) {
	c.log.Debug("TodoClient: Calling List")
	var todos []domain.Todo
	if err := c.api.Send(ctx, http.MethodGet, "/todos", nil, &todos, "Failed to fetch todos"); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (c *todoHTTPClient) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	c.log.Debugf("TodoClient: Calling Get for TodoID: %d", id)
	var todo domain.Todo
	if err := c.api.Send(ctx, http.MethodGet, todoPath(id), nil, &todo, "Failed to fetch todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *todoHTTPClient) Create(ctx context.Context, task string) (*domain.Todo, error) {
	c.log.Debug("TodoClient: Calling Create")
	var todo domain.Todo
	if err := c.api.Send(ctx, http.MethodPost, "/todos", createTodoRequest{Task: task}, &todo, "Failed to create todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *todoHTTPClient) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	c.log.Debugf("TodoClient: Calling Update for TodoID: %d", id)
	var todo domain.Todo
	if err := c.api.Send(ctx, http.MethodPut, todoPath(id), patch, &todo, "Failed to update todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *todoHTTPClient) Remove(ctx context.Context, id int64) error {
	c.log.Debugf("TodoClient: Calling Remove for TodoID: %d", id)
	return c.api.Send(ctx, http.MethodDelete, todoPath(id), nil, nil, "Failed to delete todo")
}

func (c *todoHTTPClient) Toggle(ctx context.Context, id int64) (*domain.Todo, error) {
	c.log.Debugf("TodoClient: Calling Toggle for TodoID: %d", id)
	var todo domain.Todo
	if err := c.api.Send(ctx, http.MethodPatch, todoPath(id)+"/toggle", nil, &todo, "Failed to toggle todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func todoPath(id int64) string {
	return fmt.Sprintf("/todos/%d", id)
}
