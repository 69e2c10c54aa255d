// Package fakeapi is an in-memory implementation of the to-do REST API used
// by the integration tests and the mock-server command.
package fakeapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"todo_client/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type fault struct {
	status  int
	message string
}

type Server struct {
	log       *logrus.Logger
	secret    []byte
	ttl       time.Duration
	cost      int
	autoLogin bool
	bare      bool
	now       func() time.Time
	engine    *gin.Engine

	mu         sync.Mutex
	users      map[int64]*account
	todos      map[int64]domain.Todo
	sessions   map[string]int64
	nextUserID int64
	nextTodoID int64
	faults     map[string][]fault
	calls      map[string]int
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithPasswordCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// WithAutoLogin makes /register answer with a token, logging the new user in.
func WithAutoLogin(enabled bool) Option {
	return func(s *Server) { s.autoLogin = enabled }
}

// WithBareResponses mimics the minimal backend: /login returns only a token
// and update endpoints acknowledge with a message instead of the resource.
func WithBareResponses(enabled bool) Option {
	return func(s *Server) { s.bare = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(logger *logrus.Logger, opts ...Option) *Server {
	s := &Server{
		log:      logger,
		secret:   []byte("fake-api-secret"),
		ttl:      24 * time.Hour,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		users:    make(map[int64]*account),
		todos:    make(map[int64]domain.Todo),
		sessions: make(map[string]int64),
		faults:   make(map[string][]fault),
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), requestLogger(logger), s.recordCalls())
	s.registerRoutes(router)
	s.engine = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Fake API: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Fake API: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(username, email, password string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUser(registerRequest{Username: username, Email: email, Password: password})
}

// SeedTodo stores an item for userID directly.
func (s *Server) SeedTodo(userID int64, task string, done bool) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.createTodo(userID, task)
	if err != nil {
		return domain.Todo{}, err
	}
	if done {
		t.Status = true
		s.todos[t.ID] = t
	}
	return t, nil
}

// FailNext queues a single failure for the next request to method and path.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, path)
	s.faults[key] = append(s.faults[key], fault{status: status, message: message})
}

// RevokeAll ends every live session, as a server-side expiry would.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]int64)
}

func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, path)]
}

func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
