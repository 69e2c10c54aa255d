package usecase

import (
	"context"
	"net/http"
	"sync"

	"todo_client/internal/domain"
	"todo_client/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func apiErr(status int, msg string) error {
	return &domain.APIError{Status: status, Message: msg}
}

func networkErr() error {
	return &domain.APIError{Message: domain.ErrNetwork.Error(), Kind: domain.ErrNetwork}
}

type stubAuth struct {
	mu    sync.Mutex
	calls map[string]int

	register      func(domain.RegisterRequest) (*domain.AuthResponse, error)
	login         func(domain.Credentials) (*domain.AuthResponse, error)
	logout        func() error
	getProfile    func() (*domain.User, error)
	updateProfile func(domain.ProfilePatch) (*domain.User, error)
	changePwd     func(current, next string) error
	deleteAccount func() error
}

func (s *stubAuth) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
}

func (s *stubAuth) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubAuth) Register(_ context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	s.hit("register")
	return s.register(req)
}

func (s *stubAuth) Login(_ context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	s.hit("login")
	return s.login(creds)
}

func (s *stubAuth) Logout(context.Context) error {
	s.hit("logout")
	if s.logout == nil {
		return nil
	}
	return s.logout()
}

func (s *stubAuth) GetProfile(context.Context) (*domain.User, error) {
	s.hit("getProfile")
	return s.getProfile()
}

func (s *stubAuth) UpdateProfile(_ context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	s.hit("updateProfile")
	return s.updateProfile(patch)
}

func (s *stubAuth) ChangePassword(_ context.Context, current, next string) error {
	s.hit("changePassword")
	return s.changePwd(current, next)
}

func (s *stubAuth) DeleteAccount(context.Context) error {
	s.hit("deleteAccount")
	return s.deleteAccount()
}

func (s *stubAuth) Health(context.Context) error { return nil }

// recordingStore counts writes so tests can assert the store was untouched.
type recordingStore struct {
	domain.TokenStore
	mu     sync.Mutex
	sets   int
	clears int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{TokenStore: repository.NewMemoryTokenStore()}
}

func (r *recordingStore) Set(token string) error {
	r.mu.Lock()
	r.sets++
	r.mu.Unlock()
	return r.TokenStore.Set(token)
}

func (r *recordingStore) Clear() error {
	r.mu.Lock()
	r.clears++
	r.mu.Unlock()
	return r.TokenStore.Clear()
}

// stubTodos is an in-memory server double keyed by id.
type stubTodos struct {
	mu     sync.Mutex
	calls  map[string]int
	server map[int64]domain.Todo
	nextID int64

	list   func() ([]domain.Todo, error)
	create func(task string) (*domain.Todo, error)
	update func(id int64, patch domain.TodoPatch) (*domain.Todo, error)
	remove func(id int64) error
	toggle func(id int64) (*domain.Todo, error)
}

func newStubTodos(seed ...domain.Todo) *stubTodos {
	s := &stubTodos{calls: map[string]int{}, server: map[int64]domain.Todo{}, nextID: 100}
	for _, t := range seed {
		s.server[t.ID] = t
	}
	return s
}

func (s *stubTodos) hit(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubTodos) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubTodos) List(context.Context) ([]domain.Todo, error) {
	s.hit("list")
	if s.list != nil {
		return s.list()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Todo, 0, len(s.server))
	for id := int64(0); id <= s.nextID; id++ {
		if t, ok := s.server[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTodos) Get(_ context.Context, id int64) (*domain.Todo, error) {
	s.hit("get")
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.server[id]
	if !ok {
		return nil, apiErr(http.StatusNotFound, "Todo not found")
	}
	return &t, nil
}

func (s *stubTodos) Create(_ context.Context, task string) (*domain.Todo, error) {
	s.hit("create")
	if s.create != nil {
		return s.create(task)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := domain.Todo{ID: s.nextID, Task: task}
	s.server[t.ID] = t
	return &t, nil
}

func (s *stubTodos) Update(_ context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	s.hit("update")
	if s.update != nil {
		return s.update(id, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.server[id]
	if !ok {
		return nil, apiErr(http.StatusNotFound, "Todo not found")
	}
	if patch.Task != nil {
		t.Task = *patch.Task
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	s.server[id] = t
	return &t, nil
}

func (s *stubTodos) Remove(_ context.Context, id int64) error {
	s.hit("remove")
	if s.remove != nil {
		return s.remove(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.server, id)
	return nil
}

func (s *stubTodos) Toggle(_ context.Context, id int64) (*domain.Todo, error) {
	s.hit("toggle")
	if s.toggle != nil {
		return s.toggle(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.server[id]
	if !ok {
		return nil, apiErr(http.StatusNotFound, "Todo not found")
	}
	t.Status = !t.Status
	s.server[id] = t
	return &t, nil
}
